package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAction_StringAndParse(t *testing.T) {
	for _, a := range Actions {
		parsed, err := ParseAction(a.String())
		if err != nil {
			t.Fatalf("ParseAction(%q) error = %v", a.String(), err)
		}
		if parsed != a {
			t.Errorf("ParseAction(%q) = %v, want %v", a.String(), parsed, a)
		}
	}

	if _, err := ParseAction("blahblah"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("ParseAction(blahblah) error = %v, want ErrInvalidAction", err)
	}
	if Action(42).Valid() {
		t.Error("Action(42) should not be valid")
	}
}

func TestBatchResult_JSON(t *testing.T) {
	r := NewBatchResult(ActionPendingFiles)
	r.PendingFiles = []string{"b.json", "a.json"}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["action"] != "pending_files" {
		t.Errorf("action = %v, want pending_files", got["action"])
	}
	if _, ok := got["error"]; ok {
		t.Error("error should be omitted when empty")
	}
	if files, ok := got["last_sent_files"].([]any); !ok || len(files) != 0 {
		t.Errorf("last_sent_files = %v, want empty list", got["last_sent_files"])
	}
}
