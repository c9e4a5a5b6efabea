package services

import (
	"context"
	"testing"
	"time"

	"match-stats-system/models"
	"match-stats-system/store"
)

func TestExpectedScore(t *testing.T) {
	if got := ExpectedScore(1000, 1000); got != 0.5 {
		t.Errorf("equal ratings: expected 0.5, got %v", got)
	}
	higher := ExpectedScore(1200, 1000)
	lower := ExpectedScore(1000, 1200)
	if higher <= 0.5 || lower >= 0.5 {
		t.Errorf("expected favorite above 0.5 and underdog below, got %v and %v", higher, lower)
	}
	if diff := higher + lower - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected scores should sum to 1, got %v", higher+lower)
	}
}

func TestCalculateEloChange(t *testing.T) {
	cases := []struct {
		name                    string
		player, opponent, score float64
		want                    float64
	}{
		{"even win", 1000, 1000, 1, 16},
		{"even loss", 1000, 1000, 0, -16},
		{"even draw", 1000, 1000, 0.5, 0},
		{"favorite win rounds", 1200, 1000, 1, 7.69},
		{"underdog win rounds", 1000, 1200, 1, 24.31},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateEloChange(tc.player, tc.opponent, tc.score); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCalculateTeamElo(t *testing.T) {
	if got := CalculateTeamElo(nil); got != EloStartingScore {
		t.Errorf("empty team: expected %d, got %v", EloStartingScore, got)
	}
	if got := CalculateTeamElo([]float64{1000, 1200}); got != 1100 {
		t.Errorf("expected 1100, got %v", got)
	}
	// Averages round to two decimals before feeding the expected score.
	if got := CalculateTeamElo([]float64{1000, 1001, 1001}); got != 1000.67 {
		t.Errorf("expected 1000.67, got %v", got)
	}
}

func TestUpdateMatchRatings(t *testing.T) {
	st := store.NewMemoryStore()
	players := NewPlayerService(newTestDB(t), newTestLogger())
	ratings := NewRatingService(st, players, newTestLogger())
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	matchID := seedMatch(t, st, completedDoc(1, playedAt, "ranked"))
	winnerID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Alice", "winner", 0))
	loserID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Bob", "loser", 1))

	participants := []models.Participant{
		{ID: winnerID, MatchID: matchID, PlayerName: "Alice", Flag: models.FlagWinner},
		{ID: loserID, MatchID: matchID, PlayerName: "Bob", Flag: models.FlagLoser},
	}
	if err := ratings.UpdateMatchRatings(ctx, matchID, participants, "ranked"); err != nil {
		t.Fatalf("UpdateMatchRatings: %v", err)
	}

	docs, err := st.Participants(ctx, matchID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	byName := make(map[string]models.Participant)
	for _, d := range docs {
		p := models.ConvertParticipantDoc(d.Data, d.ID)
		byName[p.PlayerName] = p
	}

	alice := byName["Alice"]
	if alice.RatingDelta == nil || *alice.RatingDelta != 16 {
		t.Fatalf("expected winner delta 16, got %v", alice.RatingDelta)
	}
	if *alice.RatingBefore != 1000 || *alice.RatingAfter != 1016 {
		t.Errorf("expected winner 1000 -> 1016, got %v -> %v", *alice.RatingBefore, *alice.RatingAfter)
	}
	bob := byName["Bob"]
	if bob.RatingDelta == nil || *bob.RatingDelta != -16 {
		t.Fatalf("expected loser delta -16, got %v", bob.RatingDelta)
	}

	stats, err := players.GetStats(ctx, "Alice", "ranked")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats == nil || stats.Score != 1016 || stats.Wins != 1 {
		t.Fatalf("expected stored score 1016 with 1 win, got %+v", stats)
	}
}

func TestUpdateMatchRatingsOneSided(t *testing.T) {
	st := store.NewMemoryStore()
	players := NewPlayerService(newTestDB(t), newTestLogger())
	ratings := NewRatingService(st, players, newTestLogger())
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	matchID := seedMatch(t, st, completedDoc(3, playedAt, "ranked"))
	aID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Alice", "winner", 0))
	bID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Bob", "winner", 1))

	participants := []models.Participant{
		{ID: aID, MatchID: matchID, PlayerName: "Alice", Flag: models.FlagWinner},
		{ID: bID, MatchID: matchID, PlayerName: "Bob", Flag: models.FlagWinner},
	}
	if err := ratings.UpdateMatchRatings(ctx, matchID, participants, "ranked"); err != nil {
		t.Fatalf("UpdateMatchRatings: %v", err)
	}

	// Without an opposing team the scores stay put, but the participant docs
	// still get their rating fields and the win counters still advance.
	docs, err := st.Participants(ctx, matchID)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	for _, d := range docs {
		p := models.ConvertParticipantDoc(d.Data, d.ID)
		if p.RatingDelta == nil || *p.RatingDelta != 0 {
			t.Fatalf("%s: expected delta 0, got %v", p.PlayerName, p.RatingDelta)
		}
		if *p.RatingBefore != 1000 || *p.RatingAfter != 1000 {
			t.Errorf("%s: expected 1000 -> 1000, got %v -> %v", p.PlayerName, *p.RatingBefore, *p.RatingAfter)
		}
	}
	stats, err := players.GetStats(ctx, "Alice", "ranked")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats == nil || stats.Score != 1000 || stats.Wins != 1 {
		t.Fatalf("expected unchanged score with one win, got %+v", stats)
	}
}

func TestUpdateMatchRatingsAllDrawers(t *testing.T) {
	st := store.NewMemoryStore()
	players := NewPlayerService(newTestDB(t), newTestLogger())
	ratings := NewRatingService(st, players, newTestLogger())
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	matchID := seedMatch(t, st, completedDoc(2, playedAt, ""))
	aID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Alice", "drawer", 0))
	bID := seedParticipant(t, st, matchID, makeParticipant(matchID, "Bob", "drawer", 1))

	participants := []models.Participant{
		{ID: aID, MatchID: matchID, PlayerName: "Alice", Flag: models.FlagDrawer},
		{ID: bID, MatchID: matchID, PlayerName: "Bob", Flag: models.FlagDrawer},
	}
	if err := ratings.UpdateMatchRatings(ctx, matchID, participants, ""); err != nil {
		t.Fatalf("UpdateMatchRatings: %v", err)
	}

	// With no winners, drawers rate against the loser team average, which is
	// the starting score here, so draws move nobody.
	stats, err := players.GetStats(ctx, "Alice", "default")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats == nil || stats.Score != 1000 || stats.Draws != 1 {
		t.Fatalf("expected unchanged score with one draw, got %+v", stats)
	}
}
