package storage

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndTotals(t *testing.T) {
	s := newTestStore(t)
	records := []MatchRecord{
		{RoomID: "r1", Winner: "A", ScoreA: 10, ScoreB: 4, Deals: 12, Duration: 20 * time.Minute},
		{RoomID: "r2", Winner: "B", ScoreA: 7, ScoreB: 10, Deals: 14, Duration: 25 * time.Minute},
		{RoomID: "r3", Winner: "A", ScoreA: 11, ScoreB: 9, Deals: 16, Duration: 30 * time.Minute},
	}
	for _, rec := range records {
		if err := s.RecordMatch(rec); err != nil {
			t.Fatalf("record %s: %v", rec.RoomID, err)
		}
	}

	totals, err := s.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Matches != 3 || totals.WinsA != 2 || totals.WinsB != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.Deals != 42 {
		t.Fatalf("expected 42 deals total, got %d", totals.Deals)
	}
}

func TestTotalsEmpty(t *testing.T) {
	s := newTestStore(t)
	totals, err := s.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Matches != 0 || totals.Deals != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestRecentMatches(t *testing.T) {
	s := newTestStore(t)
	s.RecordMatch(MatchRecord{RoomID: "old", Winner: "A", ScoreA: 10, ScoreB: 0, Deals: 10})
	s.RecordMatch(MatchRecord{RoomID: "new", Winner: "B", ScoreA: 3, ScoreB: 10, Deals: 11, Duration: time.Minute})

	recent, err := s.RecentMatches(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].RoomID != "new" {
		t.Fatalf("expected newest match first, got %+v", recent)
	}
	if recent[0].Duration != time.Minute {
		t.Fatalf("duration round-trip failed: %v", recent[0].Duration)
	}
	if recent[0].FinishedAt.IsZero() {
		t.Fatal("expected non-zero FinishedAt")
	}
}
