package events

import (
	"testing"
	"time"
)

func TestMutationEventRoundTrip(t *testing.T) {
	evt := NewMutationEvent(EntityTransaction, OpCreated, "t1", "c1", "u1")
	if evt.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	data, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}

	got, err := MutationEventFromJSON(data)
	if err != nil {
		t.Fatalf("from json: %v", err)
	}
	if got.Entity != EntityTransaction || got.Op != OpCreated || got.ID != "t1" ||
		got.ControlID != "c1" || got.OwnerID != "u1" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Millisecond).Equal(evt.Timestamp.Truncate(time.Millisecond)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, evt.Timestamp)
	}
}

func TestMutationEventFromJSONInvalid(t *testing.T) {
	if _, err := MutationEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
