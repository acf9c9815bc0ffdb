package store_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Its-donkey/buildfront/internal/store"
)

func TestEncodeSnapshotLayout(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	data, err := store.EncodeSnapshot(store.Snapshot{
		Contacts: []store.Contact{{ID: "c1", FullName: "Jane Doe", Email: "jane@x.com", Mobile: "1234567890", City: "Indore", SubmittedAt: at}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for _, key := range []string{"version", "projects", "clients", "contacts", "subscribers"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected key %q in document %s", key, data)
		}
	}
	if string(raw["projects"]) != "[]" {
		t.Fatalf("expected empty collections to encode as arrays, got %s", raw["projects"])
	}

	var contacts []map[string]any
	if err := json.Unmarshal(raw["contacts"], &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if contacts[0]["submittedAt"] != "2026-10-15T08:30:00Z" {
		t.Fatalf("expected RFC 3339 timestamp, got %v", contacts[0]["submittedAt"])
	}

	snap, err := store.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Contacts[0].SubmittedAt.Equal(at) {
		t.Fatalf("timestamp did not round-trip: %s", snap.Contacts[0].SubmittedAt)
	}
}

func TestDecodeSnapshotRejectsIncompatibleDocuments(t *testing.T) {
	_, err := store.DecodeSnapshot([]byte(`{"version":2,"projects":[],"clients":[],"contacts":[],"subscribers":[]}`))
	if !errors.Is(err, store.ErrIncompatibleState) {
		t.Fatalf("expected ErrIncompatibleState, got %v", err)
	}
	_, err = store.DecodeSnapshot([]byte(`{"projects":[]}`))
	if !errors.Is(err, store.ErrIncompatibleState) {
		t.Fatalf("expected ErrIncompatibleState for missing collections, got %v", err)
	}
}
