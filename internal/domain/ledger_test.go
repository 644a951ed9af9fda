package domain

import (
	"testing"
	"time"
)

func TestLedgerEntry_Lifecycle(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := NewLedgerEntry("a.json", created)

	if e.Sent || e.SentAt != nil {
		t.Fatalf("new entry should be pending, got %+v", e)
	}
	if e.AwaitingConfirmation() {
		t.Error("pending entry should not await confirmation")
	}

	sentAt := created.Add(time.Minute)
	e.MarkSent(sentAt)
	if !e.Sent || e.SentAt == nil || !e.SentAt.Equal(sentAt) {
		t.Fatalf("MarkSent did not set sent state, got %+v", e)
	}
	if !e.AwaitingConfirmation() {
		t.Error("sent entry should await confirmation")
	}

	e.Approve("7F3A21")
	if !e.Confirmed() || *e.ApprovalCode != "7F3A21" {
		t.Errorf("Approve did not store code, got %+v", e)
	}
	if e.AwaitingConfirmation() {
		t.Error("confirmed entry should not await confirmation")
	}
}

func TestProgress_Percent(t *testing.T) {
	tests := []struct {
		sent, total int64
		want        float64
	}{
		{0, 100, 0},
		{50, 200, 25},
		{100, 100, 100},
		{0, 0, 100},
		{150, 100, 100},
	}

	for _, tt := range tests {
		got := Progress{Sent: tt.sent, Total: tt.total}.Percent()
		if got != tt.want {
			t.Errorf("Percent(%d/%d) = %v, want %v", tt.sent, tt.total, got, tt.want)
		}
	}
}
