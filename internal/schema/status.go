package schema

import (
	"database/sql/driver"
	"fmt"
)

// Status is the processing state of a prescription.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is one of the fixed statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further pipeline work will touch the record.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) String() string { return string(s) }

// Value rejects anything outside the fixed set before it reaches the database.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("schema: invalid status %q", string(s))
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("schema: cannot scan %T into Status", src)
	}
	st := Status(raw)
	if !st.Valid() {
		return fmt.Errorf("schema: invalid status %q", raw)
	}
	*s = st
	return nil
}
