package models

import (
	"testing"
	"time"
)

func TestConvertMatchDocLegacyDefaults(t *testing.T) {
	m := ConvertMatchDoc(map[string]any{
		"matchNumber": int64(7),
		"playedAt":    "2026-03-01T12:00:00Z",
		"playerNames": []any{"Alice", "Bob"},
	}, "m1")

	if m.State != MatchCompleted {
		t.Errorf("stateless documents must default to completed, got %q", m.State)
	}
	if m.MatchNumber != 7 {
		t.Errorf("expected matchNumber 7, got %d", m.MatchNumber)
	}
	if m.PlayerCount != 2 {
		t.Errorf("playerCount must fall back to len(playerNames), got %d", m.PlayerCount)
	}
	if m.PlayedAt.IsZero() {
		t.Error("expected playedAt to parse")
	}
	if m.DeletedAt != nil {
		t.Errorf("expected nil deletedAt, got %v", m.DeletedAt)
	}
}

func TestConvertMatchDocScheduled(t *testing.T) {
	m := ConvertMatchDoc(map[string]any{
		"state":       "scheduled",
		"matchNumber": int64(12),
		"scheduledAt": "2026-04-01T18:00:00Z",
		"category":    "ranked",
		"playedAt":    "2026-03-01T12:00:00Z",
	}, "m2")

	if m.State != MatchScheduled {
		t.Fatalf("expected scheduled state, got %q", m.State)
	}
	if m.ScheduledAt.IsZero() || m.Category != "ranked" {
		t.Errorf("expected scheduledAt and category set, got %v / %q", m.ScheduledAt, m.Category)
	}
	// Scheduled documents never carry completed-match fields.
	if !m.PlayedAt.IsZero() {
		t.Errorf("scheduled conversion must ignore playedAt, got %v", m.PlayedAt)
	}
}

func TestConvertParticipantDocUnknownFlag(t *testing.T) {
	p := ConvertParticipantDoc(map[string]any{
		"matchId":    "m1",
		"playerName": "Alice",
		"flag":       "victor",
	}, "p1")

	if p.Flag != FlagDrawer {
		t.Errorf("unknown flag must degrade to drawer, got %q", p.Flag)
	}
	if p.MatchID != "m1" || p.PlayerName != "Alice" {
		t.Errorf("unexpected participant %+v", p)
	}
}

func TestConvertParticipantDocOptionalRatings(t *testing.T) {
	unrated := ConvertParticipantDoc(map[string]any{"playerName": "Alice"}, "p1")
	if unrated.RatingDelta != nil || unrated.RatingBefore != nil || unrated.RatingAfter != nil {
		t.Errorf("absent rating fields must stay nil, got %+v", unrated)
	}

	rated := ConvertParticipantDoc(map[string]any{
		"playerName":   "Alice",
		"ratingDelta":  float64(16),
		"ratingBefore": int64(1000),
		"ratingAfter":  1016,
	}, "p2")
	if rated.RatingDelta == nil || *rated.RatingDelta != 16 {
		t.Errorf("expected delta 16, got %v", rated.RatingDelta)
	}
	if rated.RatingBefore == nil || *rated.RatingBefore != 1000 {
		t.Errorf("int64-stored rating must convert, got %v", rated.RatingBefore)
	}
	if rated.RatingAfter == nil || *rated.RatingAfter != 1016 {
		t.Errorf("int-stored rating must convert, got %v", rated.RatingAfter)
	}
}

func TestConvertParticipantDocNumericCoercion(t *testing.T) {
	p := ConvertParticipantDoc(map[string]any{
		"kills":        int64(3),
		"gold":         float64(42),
		"damageDealt":  int64(150),
		"goldAcquired": float64(12.5),
	}, "p1")

	if p.Kills != 3 || p.Gold != 42 {
		t.Errorf("expected kills 3 and gold 42, got %d / %d", p.Kills, p.Gold)
	}
	if p.DamageDealt != 150 || p.GoldAcquired != 12.5 {
		t.Errorf("expected damage 150 and goldAcquired 12.5, got %v / %v", p.DamageDealt, p.GoldAcquired)
	}
}

func TestAsTimeFormats(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := asTime(want); !got.Equal(want) {
		t.Errorf("time passthrough: got %v", got)
	}
	if got := asTime("2026-03-01T12:00:00Z"); !got.Equal(want) {
		t.Errorf("rfc3339: got %v", got)
	}
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := asTime("2026-03-01"); !got.Equal(day) {
		t.Errorf("bare date: got %v", got)
	}
	if got := asTime("not a date"); !got.IsZero() {
		t.Errorf("malformed input must yield zero time, got %v", got)
	}
	if got := asTime(nil); !got.IsZero() {
		t.Errorf("nil must yield zero time, got %v", got)
	}
}
