package audit

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMemoryStoreRecordAndQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	entries := []Record{
		{Time: base, ClientID: "alice", Tool: "send_message", Outcome: OutcomeOK, Detail: "sent"},
		{Time: base.Add(time.Minute), ClientID: "bob", Tool: "send_message", Outcome: OutcomeError, Detail: "channel not found"},
		{Time: base.Add(2 * time.Minute), ClientID: "alice", Tool: "delete_message", Outcome: OutcomeDenied, Detail: "insufficient role"},
	}
	for _, rec := range entries {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.Query(ctx, Filter{ClientID: "alice"})
	if err != nil {
		t.Fatalf("query by client: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for alice, got %d", len(got))
	}
	for _, rec := range got {
		if rec.ID == "" {
			t.Fatalf("record IDs must be assigned on write")
		}
	}

	got, err = store.Query(ctx, Filter{Tool: "send_message"})
	if err != nil {
		t.Fatalf("query by tool: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 send_message records, got %d", len(got))
	}

	got, err = store.Query(ctx, Filter{From: base.Add(30 * time.Second), To: base.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("query by time range: %v", err)
	}
	if len(got) != 1 || got[0].ClientID != "bob" {
		t.Fatalf("time-range query returned wrong rows: %+v", got)
	}

	got, err = store.Query(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("query with limit: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("limit not honored, got %d rows", len(got))
	}
}

func TestSummarizeTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	if got := Summarize(long); len([]rune(got)) != 200 {
		t.Fatalf("expected 200 runes, got %d", len([]rune(got)))
	}
	if got := Summarize("short"); got != "short" {
		t.Fatalf("short detail must pass through, got %q", got)
	}
}

func TestMemoryStoreRecordHonorsCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Record(ctx, Record{ClientID: "x", Tool: "y", Outcome: OutcomeOK}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if store.Len() != 0 {
		t.Fatalf("cancelled write must not append")
	}
}
