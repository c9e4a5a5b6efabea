package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"match-stats-system/cache"
	"match-stats-system/models"
	"match-stats-system/store"
)

func newAnalyticsFixture(t *testing.T) (*AnalyticsService, *store.MemoryStore, *PlayerService) {
	t.Helper()
	logger := newTestLogger()
	st := store.NewMemoryStore()
	players := NewPlayerService(newTestDB(t), logger)
	matches := NewMatchService(st, logger)
	resultCache := cache.New(cache.NewMemoryBackend(), nil, logger)
	return NewAnalyticsService(matches, players, resultCache, logger), st, players
}

func statParticipant(matchID, name, flag, class string, stats map[string]any) map[string]any {
	doc := makeParticipant(matchID, name, flag, 0)
	doc["class"] = class
	for k, v := range stats {
		doc[k] = v
	}
	return doc
}

func TestActivityDenseSeries(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day3 := day1.AddDate(0, 0, 2)
	seedMatch(t, st, completedDoc(1, day1, ""))
	seedMatch(t, st, completedDoc(2, day1.Add(2*time.Hour), ""))
	seedMatch(t, st, completedDoc(3, day3, ""))

	points := svc.Activity(ctx, models.MatchFilters{StartDate: "2026-03-01", EndDate: "2026-03-04"})
	if len(points) != 4 {
		t.Fatalf("expected 4 dense days, got %d", len(points))
	}
	wantCounts := []int{2, 0, 1, 0}
	for i, want := range wantCounts {
		if points[i].Count != want {
			t.Errorf("day %s: expected %d, got %d", points[i].Date, want, points[i].Count)
		}
	}
	if points[0].Date != "2026-03-01" || points[3].Date != "2026-03-04" {
		t.Errorf("unexpected range: %s .. %s", points[0].Date, points[3].Date)
	}
}

func TestWinRateScansParticipants(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, makeParticipant(id, "Alice", "winner", 0))
	seedParticipant(t, st, id, makeParticipant(id, "Bob", "loser", 1))
	seedParticipant(t, st, id, makeParticipant(id, "Carol", "drawer", 2))

	got := svc.WinRate(ctx, models.MatchFilters{})
	if got.Wins != 1 || got.Losses != 1 || got.Draws != 1 {
		t.Fatalf("expected 1/1/1, got %+v", got)
	}
}

func TestWinRatePlayerShortcut(t *testing.T) {
	svc, _, players := newAnalyticsFixture(t)
	ctx := context.Background()

	// The shortcut reads stored counters, not match documents.
	if err := players.ApplyResult(ctx, "Alice", "", 16, models.FlagWinner); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}
	if err := players.ApplyResult(ctx, "Alice", "", -8, models.FlagLoser); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	got := svc.WinRate(ctx, models.MatchFilters{PlayerName: "Alice"})
	if got.Wins != 1 || got.Losses != 1 || got.Draws != 0 {
		t.Fatalf("expected stored 1W/1L, got %+v", got)
	}

	unknown := svc.WinRate(ctx, models.MatchFilters{PlayerName: "Nobody"})
	if unknown != (models.WinRateData{}) {
		t.Fatalf("unknown player should tally zero, got %+v", unknown)
	}
}

func TestClassStats(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, statParticipant(id, "Alice", "winner", "Warrior", nil))
	seedParticipant(t, st, id, statParticipant(id, "Bob", "loser", " warrior ", nil))
	seedParticipant(t, st, id, statParticipant(id, "Carol", "drawer", "Mage", nil))

	stats := svc.ClassStats(ctx, models.MatchFilters{})
	if len(stats) != 1 {
		t.Fatalf("drawers and blank labels excluded: expected 1 class, got %d", len(stats))
	}
	warrior := stats[0]
	if warrior.ID != "warrior" {
		t.Errorf("expected normalized id warrior, got %q", warrior.ID)
	}
	if warrior.TotalGames != 2 || warrior.TotalWins != 1 || warrior.TotalLosses != 1 {
		t.Errorf("expected 2 games 1W/1L, got %+v", warrior)
	}
	if warrior.WinRate != 50 {
		t.Errorf("expected win rate 50, got %v", warrior.WinRate)
	}
	if len(warrior.TopPlayers) != 2 || warrior.TopPlayers[0].PlayerName != "Alice" {
		t.Errorf("expected Alice on top of the class leaderboard, got %+v", warrior.TopPlayers)
	}
}

func TestTopHuntersTruncation(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	names := []string{"p01", "p02", "p03", "p04", "p05", "p06", "p07", "p08", "p09", "p10", "p11", "p12", "p13", "p14", "p15"}
	for i, name := range names {
		seedParticipant(t, st, id, statParticipant(id, name, "winner", "", map[string]any{
			"killsElk": i + 1,
		}))
	}

	top := svc.TopHunters(ctx, models.MatchFilters{}, 10)
	if len(top) != 10 {
		t.Fatalf("expected exactly 10 entries, got %d", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].TotalKills > top[i-1].TotalKills {
			t.Fatalf("entries not sorted descending at %d", i)
		}
	}
	// Everyone returned must out-kill the 11th-ranked player (5 kills).
	for _, entry := range top {
		if entry.TotalKills < 6 {
			t.Errorf("entry %s below the cut: %d kills", entry.PlayerName, entry.TotalKills)
		}
	}
	if top[0].TotalKills != 15 || top[0].FavoriteAnimal != "Elk" {
		t.Errorf("unexpected leader: %+v", top[0])
	}
}

func TestGameLengthAverages(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	short := completedDoc(1, day1, "")
	short["durationSeconds"] = 600
	seedMatch(t, st, short)
	long := completedDoc(2, day1.Add(time.Hour), "")
	long["durationSeconds"] = 1200
	seedMatch(t, st, long)

	points := svc.GameLength(ctx, models.MatchFilters{StartDate: "2026-03-01", EndDate: "2026-03-02"})
	if len(points) != 2 {
		t.Fatalf("expected 2 days, got %d", len(points))
	}
	if points[0].AverageDuration != 15 {
		t.Errorf("expected 15 minute average, got %v", points[0].AverageDuration)
	}
	if points[1].AverageDuration != 0 {
		t.Errorf("day without matches must average 0, got %v", points[1].AverageDuration)
	}
}

func TestPlayerActivityDistinctPerMonth(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	march := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	m1 := seedMatch(t, st, completedDoc(1, march, ""))
	seedParticipant(t, st, m1, makeParticipant(m1, "Alice", "winner", 0))
	seedParticipant(t, st, m1, makeParticipant(m1, "ALICE", "loser", 1)) // same player, different casing
	seedParticipant(t, st, m1, makeParticipant(m1, "Bob", "loser", 2))
	m2 := seedMatch(t, st, completedDoc(2, april, ""))
	seedParticipant(t, st, m2, makeParticipant(m2, "Carol", "winner", 0))

	points := svc.PlayerActivity(ctx, models.MatchFilters{StartDate: "2026-03-01", EndDate: "2026-04-30"})
	if len(points) != 2 {
		t.Fatalf("expected 2 months, got %d", len(points))
	}
	if points[0].Players != 2 {
		t.Errorf("March should count Alice once despite casing, got %d", points[0].Players)
	}
	if points[1].Players != 1 {
		t.Errorf("April should count 1 player, got %d", points[1].Players)
	}
}

func TestClassSelectionOrdering(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, statParticipant(id, "Alice", "winner", "Mage", nil))
	seedParticipant(t, st, id, statParticipant(id, "Bob", "loser", "Warrior", nil))
	seedParticipant(t, st, id, statParticipant(id, "Carol", "winner", "Warrior", nil))
	seedParticipant(t, st, id, statParticipant(id, "Dave", "loser", "Warrior", nil))

	picks := svc.ClassSelection(ctx, models.MatchFilters{})
	if len(picks) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(picks))
	}
	if picks[0].ClassName != "warrior" || picks[0].Count != 3 {
		t.Errorf("expected warrior x3 first, got %+v", picks[0])
	}
	if picks[1].ClassName != "mage" || picks[1].Count != 1 {
		t.Errorf("expected mage x1 second, got %+v", picks[1])
	}
}

func TestAggregateStats(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, statParticipant(id, "Alice", "winner", "", map[string]any{
		"damageDealt":  100.0,
		"selfHealing":  10.0,
		"allyHealing":  20.0,
		"meatEaten":    3.0,
		"goldAcquired": 40.0,
		"killsElk":     2,
		"killsWolf":    1,
	}))
	seedParticipant(t, st, id, statParticipant(id, "Bob", "loser", "", map[string]any{
		"damageDealt": 50.0,
		// Legacy document shape: acquired gold only under the plain counter.
		"gold": 7,
	}))

	stats := svc.AggregateStats(ctx, models.MatchFilters{})
	if stats.TotalMatches != 1 {
		t.Fatalf("expected 1 match, got %d", stats.TotalMatches)
	}
	if stats.TotalDamageDealt != 150 {
		t.Errorf("expected damage 150, got %v", stats.TotalDamageDealt)
	}
	if stats.TotalHealing.TotalHealing != 30 {
		t.Errorf("expected healing 30, got %v", stats.TotalHealing.TotalHealing)
	}
	if stats.TotalGoldAcquired != 47 {
		t.Errorf("expected gold 47 including legacy counter, got %v", stats.TotalGoldAcquired)
	}
	if stats.TotalAnimalKills.Total != 3 {
		t.Errorf("expected 3 animal kills, got %d", stats.TotalAnimalKills.Total)
	}
	if stats.AveragesPerMatch.DamageDealt != 150 {
		t.Errorf("single match: average equals total, got %v", stats.AveragesPerMatch.DamageDealt)
	}
}

func TestAggregateStatsEmpty(t *testing.T) {
	svc, _, _ := newAnalyticsFixture(t)

	stats := svc.AggregateStats(context.Background(), models.MatchFilters{})
	if stats.TotalMatches != 0 {
		t.Fatalf("expected zero matches, got %d", stats.TotalMatches)
	}
	if stats.AveragesPerMatch != (models.StatAverages{}) {
		t.Errorf("averages over zero matches must stay zero, got %+v", stats.AveragesPerMatch)
	}
}

func TestAnimalKillsDistribution(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, statParticipant(id, "Alice", "winner", "", map[string]any{
		"killsElk":  3,
		"killsWolf": 1,
	}))
	seedParticipant(t, st, id, makeParticipant(id, "Bob", "loser", 1))

	slices := svc.AnimalKillsDistribution(ctx, models.MatchFilters{})
	if len(slices) != 6 {
		t.Fatalf("expected all 6 kinds, got %d", len(slices))
	}
	if slices[0].AnimalType != "Elk" || slices[0].Count != 3 || slices[0].Percentage != 75 {
		t.Errorf("unexpected top slice: %+v", slices[0])
	}
}

func TestRatingHistory(t *testing.T) {
	svc, st, players := newAnalyticsFixture(t)
	ctx := context.Background()

	// Seed the stored score the series starts from.
	if err := players.ApplyResult(ctx, "Alice", "ranked", 24, models.FlagWinner); err != nil {
		t.Fatalf("ApplyResult: %v", err)
	}

	day1 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	m1 := seedMatch(t, st, completedDoc(1, day1, "ranked"))
	seedParticipant(t, st, m1, statParticipant(m1, "Alice", "winner", "", map[string]any{"ratingDelta": 16.0}))
	m2 := seedMatch(t, st, completedDoc(2, day2, "ranked"))
	seedParticipant(t, st, m2, statParticipant(m2, "Alice", "loser", "", map[string]any{"ratingDelta": -8.0}))
	// No delta recorded: contributes no point.
	m3 := seedMatch(t, st, completedDoc(3, day2.AddDate(0, 0, 1), "ranked"))
	seedParticipant(t, st, m3, makeParticipant(m3, "Alice", "drawer", 0))

	points := svc.RatingHistory(ctx, models.MatchFilters{
		PlayerName: "Alice",
		Category:   "ranked",
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-10",
	})
	if len(points) != 3 {
		t.Fatalf("expected seed plus 2 delta points, got %d", len(points))
	}
	if points[0].Date != "2026-03-01" || points[0].Rating != 1024 {
		t.Errorf("seed point should carry the stored score at range start, got %+v", points[0])
	}
	if points[1].Rating != 1040 || points[2].Rating != 1032 {
		t.Errorf("expected running values 1040 then 1032, got %v and %v", points[1].Rating, points[2].Rating)
	}

	if got := svc.RatingHistory(ctx, models.MatchFilters{}); len(got) != 0 {
		t.Errorf("missing player name must yield an empty series, got %d points", len(got))
	}
}

// Grouped pipelines must produce identical bytes on every run over the same
// stored matches. Map iteration order is randomized per run, so any grouping
// that leaked it would fail here.
func TestAggregationOutputIsStable(t *testing.T) {
	logger := newTestLogger()
	st := store.NewMemoryStore()
	db := newTestDB(t)

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	classes := []string{"warrior", "mage", "ranger", "cleric", "rogue"}
	for i := 0; i < 6; i++ {
		id := seedMatch(t, st, completedDoc(i+1, playedAt.AddDate(0, 0, i), ""))
		for j, class := range classes {
			flag := "winner"
			if (i+j)%2 == 0 {
				flag = "loser"
			}
			seedParticipant(t, st, id, statParticipant(id, fmt.Sprintf("player%d", j), flag, class, map[string]any{
				"killsElk":  i + j,
				"killsWolf": j,
			}))
		}
	}

	run := func() ([]byte, []byte, []byte) {
		// Fresh service and cache each run so nothing is served from a
		// previous computation.
		players := NewPlayerService(db, logger)
		matches := NewMatchService(st, logger)
		svc := NewAnalyticsService(matches, players, cache.New(cache.NewMemoryBackend(), nil, logger), logger)
		ctx := context.Background()

		classStats, err := json.Marshal(svc.ClassStats(ctx, models.MatchFilters{}))
		if err != nil {
			t.Fatalf("marshal classStats: %v", err)
		}
		selection, err := json.Marshal(svc.ClassSelection(ctx, models.MatchFilters{}))
		if err != nil {
			t.Fatalf("marshal classSelection: %v", err)
		}
		hunters, err := json.Marshal(svc.TopHunters(ctx, models.MatchFilters{}, 10))
		if err != nil {
			t.Fatalf("marshal topHunters: %v", err)
		}
		return classStats, selection, hunters
	}

	firstClassStats, firstSelection, firstHunters := run()
	for i := 0; i < 5; i++ {
		classStats, selection, hunters := run()
		if !bytes.Equal(classStats, firstClassStats) {
			t.Fatalf("classStats output changed between runs:\n%s\n%s", firstClassStats, classStats)
		}
		if !bytes.Equal(selection, firstSelection) {
			t.Fatalf("classSelection output changed between runs:\n%s\n%s", firstSelection, selection)
		}
		if !bytes.Equal(hunters, firstHunters) {
			t.Fatalf("topHunters output changed between runs:\n%s\n%s", firstHunters, hunters)
		}
	}
}

func TestFilterByTeamFormat(t *testing.T) {
	shape := func(winners, losers, drawers int) models.MatchWithParticipants {
		var players []models.Participant
		for i := 0; i < winners; i++ {
			players = append(players, models.Participant{Flag: models.FlagWinner})
		}
		for i := 0; i < losers; i++ {
			players = append(players, models.Participant{Flag: models.FlagLoser})
		}
		for i := 0; i < drawers; i++ {
			players = append(players, models.Participant{Flag: models.FlagDrawer})
		}
		return models.MatchWithParticipants{Players: players}
	}

	matches := []models.MatchWithParticipants{
		shape(2, 2, 0), // 2v2
		shape(1, 1, 0), // 1v1
		shape(2, 1, 0), // 2v1
		shape(0, 0, 4), // draws only; no team shape
	}

	cases := []struct {
		format string
		want   int
	}{
		{"", 4}, // no filter keeps everything
		{"2v2", 1},
		{"1v1", 1},
		{"2v1", 1},
		{"1v2", 0}, // shape strings are ordered winners-first
		{"3v3", 0},
	}
	for _, tc := range cases {
		if got := len(filterByTeamFormat(matches, tc.format)); got != tc.want {
			t.Errorf("format %q: expected %d matches, got %d", tc.format, tc.want, got)
		}
	}
}

func TestGameLengthRespectsTeamFormat(t *testing.T) {
	svc, st, _ := newAnalyticsFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	duel := completedDoc(1, day, "")
	duel["durationSeconds"] = 600
	duelID := seedMatch(t, st, duel)
	seedParticipant(t, st, duelID, makeParticipant(duelID, "Alice", "winner", 0))
	seedParticipant(t, st, duelID, makeParticipant(duelID, "Bob", "loser", 1))

	brawl := completedDoc(2, day.Add(time.Hour), "")
	brawl["durationSeconds"] = 2400
	brawlID := seedMatch(t, st, brawl)
	seedParticipant(t, st, brawlID, makeParticipant(brawlID, "Carol", "winner", 0))
	seedParticipant(t, st, brawlID, makeParticipant(brawlID, "Dave", "winner", 1))
	seedParticipant(t, st, brawlID, makeParticipant(brawlID, "Eve", "loser", 2))
	seedParticipant(t, st, brawlID, makeParticipant(brawlID, "Frank", "loser", 3))

	points := svc.GameLength(ctx, models.MatchFilters{
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-01",
		TeamFormat: "1v1",
	})
	if len(points) != 1 {
		t.Fatalf("expected 1 day, got %d", len(points))
	}
	// Only the duel counts: 600s = 10 minutes, not the 25-minute blended
	// average.
	if points[0].AverageDuration != 10 {
		t.Errorf("expected 10 minute average from the 1v1 match only, got %v", points[0].AverageDuration)
	}
}

func TestOverviewSharesFetches(t *testing.T) {
	logger := newTestLogger()
	st := store.NewMemoryStore()
	counting := &countingMatchStore{Store: st}
	players := NewPlayerService(newTestDB(t), logger)
	matches := NewMatchService(counting, logger)
	resultCache := cache.New(cache.NewMemoryBackend(), nil, logger)
	svc := NewAnalyticsService(matches, players, resultCache, logger)

	playedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id := seedMatch(t, st, completedDoc(1, playedAt, ""))
	seedParticipant(t, st, id, makeParticipant(id, "Alice", "winner", 0))
	seedParticipant(t, st, id, makeParticipant(id, "Bob", "loser", 1))

	overview := svc.Overview(context.Background(), models.MatchFilters{})
	if overview.WinRate.Wins != 1 {
		t.Fatalf("unexpected overview win rate: %+v", overview.WinRate)
	}
	if counting.matchQueries != 1 {
		t.Errorf("overview pipelines should share one fetch, got %d queries", counting.matchQueries)
	}
}

type countingMatchStore struct {
	store.Store
	matchQueries int
}

func (s *countingMatchStore) Matches() store.Query {
	s.matchQueries++
	return s.Store.Matches()
}
