package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/agencei/internal/metrics"
	"github.com/Shivanand-hulikatti/agencei/internal/model"
)

// Headers set by the upstream identity layer.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type ctxKey int

const actorKey ctxKey = iota

// Logger returns a request logging middleware using zerolog.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Metrics records Prometheus request metrics labelled by route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Identity reads the caller from the identity headers. Requests without them
// continue anonymously; malformed headers are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID, rawRole := r.Header.Get(HeaderUserID), r.Header.Get(HeaderUserRole)
		if rawID == "" && rawRole == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", HeaderUserID+" must be a UUID")
			return
		}
		role, err := model.ParseRole(rawRole)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, model.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom returns the caller stored by Identity.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(actorKey).(model.Actor)
	return a, ok
}

// Require rejects callers whose role lacks capability c.
func Require(c model.Capability) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
				return
			}
			if !actor.Role.Can(c) {
				writeError(w, http.StatusForbidden, "permission_denied", "role "+actor.Role.String()+" may not do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor is for handlers mounted behind Require.
func actor(r *http.Request) model.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}
