// Package events publishes prescription status transitions on NATS.
//
// Subjects follow mediscribe.prescription.<status>.<unique_id>, so a
// consumer interested in failures subscribes to
// mediscribe.prescription.failed.*.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

const SubjectPrefix = "mediscribe.prescription"

// StatusChanged is published after every committed checkpoint.
type StatusChanged struct {
	UniqueID string `json:"unique_id"`
	Status   string `json:"status"`
	Stage    string `json:"stage"`
	Error    string `json:"error,omitempty"`
}

// Subject returns the subject a status change for uniqueID is published on.
func Subject(status, uniqueID string) string {
	return SubjectPrefix + "." + status + "." + uniqueID
}

// Wildcard matches every record's transitions into status.
func Wildcard(status string) string {
	return SubjectPrefix + "." + status + ".*"
}

// Publisher sends status changes. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev StatusChanged) error
}

// NATS publishes on a core NATS connection.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(nc *nats.Conn) *NATS {
	return &NATS{nc: nc}
}

func (p *NATS) Publish(ctx context.Context, ev StatusChanged) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := p.nc.Publish(Subject(ev.Status, ev.UniqueID), data); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

// Nop drops every event. It is used when no NATS URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, StatusChanged) error { return nil }

// Decode parses a message body. The unique id falls back to the last
// subject token when the body omits it.
func Decode(subject string, data []byte) (StatusChanged, error) {
	var ev StatusChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("events: decode %s: %w", subject, err)
	}
	if ev.UniqueID == "" {
		if i := strings.LastIndexByte(subject, '.'); i >= 0 {
			ev.UniqueID = subject[i+1:]
		}
	}
	return ev, nil
}
