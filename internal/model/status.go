package model

import (
	"encoding/json"
	"fmt"
)

// Status is the attendance state of a registration.
type Status int

const (
	StatusPending Status = iota + 1
	StatusPresent
	StatusAbsent
)

var statusNames = map[Status]string{
	StatusPending: "pending",
	StatusPresent: "present",
	StatusAbsent:  "absent",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts the stored text form back into a Status.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown registration status %q", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
