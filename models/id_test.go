package models

import (
	"encoding/json"
	"testing"
)

func TestID_JSONRoundTrip(t *testing.T) {
	id := ID(1099511628283)

	data, err := json.Marshal(id)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"1099511628283"` {
		t.Errorf("expected quoted string, got %s", data)
	}

	var back ID
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != id {
		t.Errorf("round trip mismatch: %d != %d", back, id)
	}
}

func TestID_UnmarshalNumber(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`1048581`), &id); err != nil {
		t.Fatal(err)
	}
	if id != 1048581 {
		t.Errorf("expected 1048581, got %d", id)
	}
}

func TestID_UnmarshalInvalid(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`"abc"`), &id); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestID_Scan(t *testing.T) {
	var id ID
	if err := id.Scan(int64(42)); err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Errorf("expected 42, got %d", id)
	}

	if err := id.Scan([]byte("1048581")); err != nil {
		t.Fatal(err)
	}
	if id != 1048581 {
		t.Errorf("expected 1048581, got %d", id)
	}

	if err := id.Scan("nope"); err == nil {
		t.Error("expected error scanning string")
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID("1048581")
	if err != nil {
		t.Fatal(err)
	}
	if id != 1048581 {
		t.Errorf("expected 1048581, got %d", id)
	}

	if _, err := ParseID("not-an-id"); err == nil {
		t.Error("expected error")
	}
}
