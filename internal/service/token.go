package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	tokenHexLen      = 16
	maxTokenAttempts = 5
)

// attendanceToken hashes the booking's identifying fields into a short code.
// nonce keeps two identical bookings apart and changes on every retry.
func attendanceToken(prefix, name string, start time.Time, roomID, organizerID, nonce uuid.UUID) string {
	h := sha256.New()
	for _, part := range []string{
		name,
		start.UTC().Format(time.RFC3339Nano),
		roomID.String(),
		organizerID.String(),
		nonce.String(),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	sum := hex.EncodeToString(h.Sum(nil))[:tokenHexLen]
	return strings.ToUpper(prefix + "_" + sum)
}

func normalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}
