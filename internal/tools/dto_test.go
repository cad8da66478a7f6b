package tools

import (
	"testing"
	"time"

	"github.com/matheus3301/wppmcp/internal/query"
	"github.com/matheus3301/wppmcp/internal/store"
)

func TestMessageTimestampKeepsSubSecond(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 5, 250_000_000, time.UTC)
	dto := MessageToDTO(&store.Message{ID: "m1", ChatJID: "111@s.whatsapp.net", Timestamp: ts})

	if dto.Timestamp != "2024-03-01T12:00:05.25Z" {
		t.Errorf("timestamp = %q", dto.Timestamp)
	}

	// A returned timestamp fed back as a bound must name the same instant.
	back, err := query.ParseTime("after", dto.Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ts) {
		t.Errorf("round trip = %v, want %v", back, ts)
	}
}

func TestZeroTimeIsOmitted(t *testing.T) {
	if got := formatTime(time.Time{}); got != "" {
		t.Errorf("formatTime(zero) = %q, want empty", got)
	}
}
