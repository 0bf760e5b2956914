// Package events publishes domain events describing changes to groups and expenses.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types, also used as AMQP routing keys.
const (
	GroupCreated   = "group.created"
	GroupDeleted   = "group.deleted"
	MemberAdded    = "member.added"
	ExpenseCreated = "expense.created"
)

// Event is a change that other systems may react to.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	GroupID    string    `json:"group_id"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// New creates an event with a fresh ID stamped with the current time.
func New(eventType, groupID, actorID string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		GroupID:    groupID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
