package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind names a user-initiated action.
type Kind string

const (
	KindImport    Kind = "accounts.imported"
	KindTransfer  Kind = "transfer.submitted"
	KindDeleteAll Kind = "accounts.deleted_all"
)

// Event records one user-initiated action and its outcome.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"session_id"`
	AccountID string    `json:"account_id,omitempty"`
	ToAccount string    `json:"to_account,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(kind Kind, sessionID string, err error) Event {
	ev := Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Kind:      kind,
		SessionID: sessionID,
		Success:   err == nil,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Recorder receives activity events. Implementations must not block the
// caller on slow sinks for long and must handle their own errors.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// Recorders fans an event out to several recorders.
type Recorders []Recorder

// Record implements Recorder
func (rs Recorders) Record(ctx context.Context, ev Event) {
	for _, r := range rs {
		r.Record(ctx, ev)
	}
}

// Discard drops every event.
var Discard Recorder = Recorders(nil)
