// Package audit captures the operator-facing actions of the card and
// fulfillment subsystems. Events are emitted from domain logic, buffered on
// a channel, and persisted by a worker; an optional Kafka publisher mirrors
// them for downstream consumers. Audit is always best-effort: a failed
// emit never fails the operation that produced it.
package audit

import (
	"context"
	"fmt"
	"time"
)

// Action names the operation an event records.
type Action string

const (
	ActionBatchCreated     Action = "card_batch_created"
	ActionCardUpdated      Action = "card_updated"
	ActionCardStatusSet    Action = "card_status_set"
	ActionCardDeleted      Action = "card_deleted"
	ActionCardLinked       Action = "card_linked"
	ActionCardUnlinked     Action = "card_unlinked"
	ActionRequestStatusSet Action = "fulfillment_status_set"
)

// Event is one audit record. Subject is the entity's human-readable key
// (card serial, batch id, request id).
type Event struct {
	Action     Action    `json:"action"`
	Subject    string    `json:"subject"`
	Detail     string    `json:"detail,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Detail formats a single key/value pair for the Detail field.
func Detail(key string, value any) string {
	return fmt.Sprintf("%s=%v", key, value)
}

// Emitter accepts audit events from domain logic.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// NopEmitter discards events. Default when audit is not wired.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }

// Multi fans one event out to several emitters, returning the first error
// after attempting all of them.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event Event) error {
	var first error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
