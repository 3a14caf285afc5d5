package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a Canonico. The wire representation is a
// single-letter code; everything above the JSON boundary uses the enum.
type Status int

const (
	// StatusUnset is the zero value and never valid on the wire.
	StatusUnset Status = iota
	// StatusActive is coded "A".
	StatusActive
	// StatusInactive is coded "I".
	StatusInactive
)

// Wire codes.
const (
	StatusCodeActive   = "A"
	StatusCodeInactive = "I"
)

// Code returns the wire code, or "" for an unset status.
func (s Status) Code() string {
	switch s {
	case StatusActive:
		return StatusCodeActive
	case StatusInactive:
		return StatusCodeInactive
	default:
		return ""
	}
}

// Label returns the human-readable display text.
func (s Status) Label() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	default:
		return ""
	}
}

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unset"
	}
}

// Valid reports whether s is one of the two lifecycle states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// StatusFromCode maps a wire code to a Status.
func StatusFromCode(code string) (Status, error) {
	switch code {
	case StatusCodeActive:
		return StatusActive, nil
	case StatusCodeInactive:
		return StatusInactive, nil
	default:
		return StatusUnset, fmt.Errorf("model: unknown status code %q", code)
	}
}

// ParseStatus accepts either a wire code or the words "active"/"inactive"
// (case-insensitive).
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "active":
		return StatusActive, nil
	case "i", "inactive":
		return StatusInactive, nil
	default:
		return StatusUnset, fmt.Errorf("model: unknown status %q", s)
	}
}

// MarshalJSON encodes the wire code.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("model: cannot encode status %d", int(s))
	}
	return json.Marshal(s.Code())
}

// UnmarshalJSON decodes a wire code, rejecting anything but "A" and "I".
// A JSON null leaves the status unset.
func (s *Status) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = StatusUnset
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("model: status must be a string: %w", err)
	}
	parsed, err := StatusFromCode(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
