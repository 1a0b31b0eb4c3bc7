package events

import (
	"encoding/json"
	"time"
)

// Entity names carried on mutation events.
const (
	EntityControl     = "control"
	EntityTransaction = "transaction"
	EntityReminder    = "reminder"
	EntityInvestment  = "investment"
)

// Ops carried on mutation events.
const (
	OpCreated = "created"
	OpDeleted = "deleted"
	OpPaid    = "paid"
)

// MutationEvent is the lightweight record published after a successful
// mutation. Consumers fetch full state from the store if they need it.
type MutationEvent struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	ControlID string    `json:"control_id,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMutationEvent(entity, op, id, controlID, ownerID string) *MutationEvent {
	return &MutationEvent{
		Entity:    entity,
		Op:        op,
		ID:        id,
		ControlID: controlID,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

func (m *MutationEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationEventFromJSON(data []byte) (*MutationEvent, error) {
	var msg MutationEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
