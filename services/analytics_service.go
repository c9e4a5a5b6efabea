// services/analytics_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"match-stats-system/cache"
	"match-stats-system/models"
	"match-stats-system/utils"
)

// maxAggregationFetch bounds how many matches one aggregation will iterate.
const maxAggregationFetch = 10000

// defaultLeaderboardSize is the leaderboard length when none is requested.
const defaultLeaderboardSize = 10

// animalKinds in enumeration order; ties in "favorite animal" resolve to the
// earliest kind.
var animalKinds = []string{"Elk", "Hawk", "Snake", "Wolf", "Bear", "Panther"}

// AnalyticsService computes the aggregation pipelines. Every pipeline is
// best-effort: on any internal error it logs and returns an empty result of
// the correct shape instead of propagating. Each pipeline is individually
// wrapped in the result cache; within one request, fetches are shared through
// the request's FetchCache.
type AnalyticsService struct {
	matches *MatchService
	players *PlayerService
	cache   *cache.ResultCache
	logger  *logrus.Entry
}

func NewAnalyticsService(matches *MatchService, players *PlayerService, resultCache *cache.ResultCache, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{
		matches: matches,
		players: players,
		cache:   resultCache,
		logger:  logger.WithField("component", "analyticsService"),
	}
}

func (s *AnalyticsService) logFailure(operation string, filters models.MatchFilters, err error) {
	s.logger.WithError(err).WithFields(logrus.Fields{
		"operation":  operation,
		"category":   filters.Category,
		"startDate":  filters.StartDate,
		"endDate":    filters.EndDate,
		"playerName": filters.PlayerName,
	}).Error("aggregation failed, returning empty result")
}

// fetchCompleted loads the filtered completed matches with participants,
// de-duplicated through the request's FetchCache when one is attached.
func (s *AnalyticsService) fetchCompleted(ctx context.Context, filters models.MatchFilters) ([]models.MatchWithParticipants, error) {
	fetch := func() ([]models.MatchWithParticipants, error) {
		result, err := s.matches.FindWithParticipants(ctx, models.MatchFilters{
			State:     models.MatchCompleted,
			Category:  filters.Category,
			StartDate: filters.StartDate,
			EndDate:   filters.EndDate,
			Limit:     maxAggregationFetch,
		})
		if err != nil {
			return nil, err
		}
		return result.Matches, nil
	}

	if fc := FetchCacheFrom(ctx); fc != nil {
		key := fmt.Sprintf("completed|%s|%s|%s", filters.Category, filters.StartDate, filters.EndDate)
		return fc.GetOrFetch(key, fetch)
	}
	return fetch()
}

// filterByTeamFormat keeps matches whose winner/loser participant counts form
// the requested "{winners}v{losers}" string.
func filterByTeamFormat(matches []models.MatchWithParticipants, format string) []models.MatchWithParticipants {
	if format == "" {
		return matches
	}
	out := make([]models.MatchWithParticipants, 0, len(matches))
	for _, m := range matches {
		winners, losers := 0, 0
		for _, p := range m.Players {
			switch p.Flag {
			case models.FlagWinner:
				winners++
			case models.FlagLoser:
				losers++
			}
		}
		if fmt.Sprintf("%dv%d", winners, losers) == format {
			out = append(out, m)
		}
	}
	return out
}

// Activity returns the dense match-count-per-day series.
func (s *AnalyticsService) Activity(ctx context.Context, filters models.MatchFilters) []models.ActivityPoint {
	result, err := cache.GetOrCompute(ctx, s.cache, "activity", filters, func(ctx context.Context) ([]models.ActivityPoint, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}

		counts := make(map[string]int)
		var minPlayed, maxPlayed time.Time
		for _, m := range matches {
			if m.PlayedAt.IsZero() {
				continue
			}
			counts[utils.DayKey(m.PlayedAt)]++
			if minPlayed.IsZero() || m.PlayedAt.Before(minPlayed) {
				minPlayed = m.PlayedAt
			}
			if m.PlayedAt.After(maxPlayed) {
				maxPlayed = m.PlayedAt
			}
		}

		// Chart range: the requested window when fully given, otherwise the
		// observed span padded a week on each side, otherwise the trailing
		// year.
		var start, end time.Time
		switch {
		case filters.StartDate != "" && filters.EndDate != "":
			start = utils.ParseISODate(filters.StartDate)
			end = utils.ParseISODate(filters.EndDate)
		case !minPlayed.IsZero():
			start = minPlayed.AddDate(0, 0, -7)
			end = maxPlayed.AddDate(0, 0, 7)
		default:
			end = time.Now().UTC()
			start = end.AddDate(0, 0, -365)
		}

		points := []models.ActivityPoint{}
		for _, day := range utils.DaysBetween(start, end) {
			points = append(points, models.ActivityPoint{Date: day, Count: counts[day]})
		}
		return points, nil
	})
	if err != nil {
		s.logFailure("activity", filters, err)
		return []models.ActivityPoint{}
	}
	return result
}

// WinRate tallies outcomes. With a player name it reads that player's stored
// per-category counters; otherwise it scans every filtered participant.
func (s *AnalyticsService) WinRate(ctx context.Context, filters models.MatchFilters) models.WinRateData {
	result, err := cache.GetOrCompute(ctx, s.cache, "winRate", filters, func(ctx context.Context) (models.WinRateData, error) {
		if filters.PlayerName != "" {
			stats, err := s.players.GetStats(ctx, filters.PlayerName, filters.Category)
			if err != nil {
				return models.WinRateData{}, err
			}
			if stats == nil {
				return models.WinRateData{}, nil
			}
			return models.WinRateData{Wins: stats.Wins, Losses: stats.Losses, Draws: stats.Draws}, nil
		}

		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return models.WinRateData{}, err
		}
		var tally models.WinRateData
		for _, m := range matches {
			for _, p := range m.Players {
				switch p.Flag {
				case models.FlagWinner:
					tally.Wins++
				case models.FlagLoser:
					tally.Losses++
				case models.FlagDrawer:
					tally.Draws++
				}
			}
		}
		return tally, nil
	})
	if err != nil {
		s.logFailure("winRate", filters, err)
		return models.WinRateData{}
	}
	return result
}

type classAccumulator struct {
	wins        int
	losses      int
	playerOrder []string
	players     map[string]*classPlayerAccumulator
}

type classPlayerAccumulator struct {
	wins   int
	losses int
	delta  float64
}

// ClassStats groups decided participants by class label and builds per-class
// totals plus a top-10 player leaderboard per class. Drawers and empty labels
// are excluded. The class list is sorted by total games, most played first.
func (s *AnalyticsService) ClassStats(ctx context.Context, filters models.MatchFilters) []models.ClassStats {
	// Class statistics span all time; only the category filter applies.
	classFilters := models.MatchFilters{Category: filters.Category}

	result, err := cache.GetOrCompute(ctx, s.cache, "classStats", classFilters, func(ctx context.Context) ([]models.ClassStats, error) {
		matches, err := s.fetchCompleted(ctx, classFilters)
		if err != nil {
			return nil, err
		}

		classes := make(map[string]*classAccumulator)
		var classOrder []string
		latestPlayed := make(map[string]time.Time)

		for _, m := range matches {
			for _, p := range m.Players {
				if p.Flag == models.FlagDrawer {
					continue
				}
				label := utils.NormalizeClass(p.Class)
				if label == "" {
					continue
				}

				acc, ok := classes[label]
				if !ok {
					acc = &classAccumulator{players: make(map[string]*classPlayerAccumulator)}
					classes[label] = acc
					classOrder = append(classOrder, label)
				}
				if m.PlayedAt.After(latestPlayed[label]) {
					latestPlayed[label] = m.PlayedAt
				}

				player, ok := acc.players[p.PlayerName]
				if !ok {
					player = &classPlayerAccumulator{}
					acc.players[p.PlayerName] = player
					acc.playerOrder = append(acc.playerOrder, p.PlayerName)
				}
				switch p.Flag {
				case models.FlagWinner:
					acc.wins++
					player.wins++
				case models.FlagLoser:
					acc.losses++
					player.losses++
				}
				if p.RatingDelta != nil {
					player.delta += *p.RatingDelta
				}
			}
		}

		out := []models.ClassStats{}
		for _, label := range classOrder {
			acc := classes[label]
			decided := acc.wins + acc.losses
			winRate := 0.0
			if decided > 0 {
				winRate = float64(acc.wins) / float64(decided) * 100
			}

			standings := []models.ClassPlayerStanding{}
			for _, name := range acc.playerOrder {
				p := acc.players[name]
				games := p.wins + p.losses
				if games == 0 {
					continue
				}
				standings = append(standings, models.ClassPlayerStanding{
					PlayerName:  name,
					Wins:        p.wins,
					Losses:      p.losses,
					WinRate:     float64(p.wins) / float64(games) * 100,
					RatingDelta: p.delta,
				})
			}
			sort.SliceStable(standings, func(i, j int) bool {
				a, b := standings[i], standings[j]
				if a.WinRate != b.WinRate {
					return a.WinRate > b.WinRate
				}
				if a.Wins+a.Losses != b.Wins+b.Losses {
					return a.Wins+a.Losses > b.Wins+b.Losses
				}
				return a.RatingDelta > b.RatingDelta
			})
			if len(standings) > defaultLeaderboardSize {
				standings = standings[:defaultLeaderboardSize]
			}

			updatedAt := ""
			if t := latestPlayed[label]; !t.IsZero() {
				updatedAt = t.UTC().Format(time.RFC3339)
			}
			out = append(out, models.ClassStats{
				ID:          label,
				Category:    filters.Category,
				TotalGames:  decided,
				TotalWins:   acc.wins,
				TotalLosses: acc.losses,
				WinRate:     winRate,
				TopPlayers:  standings,
				UpdatedAt:   updatedAt,
			})
		}

		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalGames > out[j].TotalGames
		})
		return out, nil
	})
	if err != nil {
		s.logFailure("classStats", filters, err)
		return []models.ClassStats{}
	}
	return result
}

// GameLength returns the dense average-duration-per-day series, in minutes.
func (s *AnalyticsService) GameLength(ctx context.Context, filters models.MatchFilters) []models.DurationPoint {
	result, err := cache.GetOrCompute(ctx, s.cache, "gameLength", filters, func(ctx context.Context) ([]models.DurationPoint, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}
		matches = filterByTeamFormat(matches, filters.TeamFormat)

		type bucket struct {
			total float64
			count int
		}
		buckets := make(map[string]bucket)
		for _, m := range matches {
			if m.PlayedAt.IsZero() {
				continue
			}
			day := utils.DayKey(m.PlayedAt)
			b := buckets[day]
			b.total += float64(m.DurationSeconds) / 60
			b.count++
			buckets[day] = b
		}

		start, end := windowOrTrailingYear(filters)
		points := []models.DurationPoint{}
		for _, day := range utils.DaysBetween(start, end) {
			avg := 0.0
			if b := buckets[day]; b.count > 0 {
				avg = b.total / float64(b.count)
			}
			points = append(points, models.DurationPoint{Date: day, AverageDuration: avg})
		}
		return points, nil
	})
	if err != nil {
		s.logFailure("gameLength", filters, err)
		return []models.DurationPoint{}
	}
	return result
}

// PlayerActivity counts distinct players per calendar month.
func (s *AnalyticsService) PlayerActivity(ctx context.Context, filters models.MatchFilters) []models.PlayerActivityPoint {
	result, err := cache.GetOrCompute(ctx, s.cache, "playerActivity", filters, func(ctx context.Context) ([]models.PlayerActivityPoint, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}
		matches = filterByTeamFormat(matches, filters.TeamFormat)

		byMonth := make(map[string]map[string]bool)
		for _, m := range matches {
			if m.PlayedAt.IsZero() {
				continue
			}
			month := m.PlayedAt.UTC().Format("2006-01")
			if byMonth[month] == nil {
				byMonth[month] = make(map[string]bool)
			}
			for _, p := range m.Players {
				byMonth[month][utils.NormalizeName(p.PlayerName)] = true
			}
		}

		start, end := windowOrTrailingYear(filters)
		points := []models.PlayerActivityPoint{}
		for _, month := range utils.MonthsBetween(start, end) {
			points = append(points, models.PlayerActivityPoint{
				Date:    month + "-01",
				Players: len(byMonth[month]),
			})
		}
		return points, nil
	})
	if err != nil {
		s.logFailure("playerActivity", filters, err)
		return []models.PlayerActivityPoint{}
	}
	return result
}

// ClassSelection returns flat pick counts per class label, most picked first.
func (s *AnalyticsService) ClassSelection(ctx context.Context, filters models.MatchFilters) []models.ClassSelection {
	result, err := cache.GetOrCompute(ctx, s.cache, "classSelection", filters, func(ctx context.Context) ([]models.ClassSelection, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}
		matches = filterByTeamFormat(matches, filters.TeamFormat)

		counts := make(map[string]int)
		var order []string
		for _, m := range matches {
			for _, p := range m.Players {
				if p.Flag == models.FlagDrawer {
					continue
				}
				label := utils.NormalizeClass(p.Class)
				if label == "" {
					continue
				}
				if _, ok := counts[label]; !ok {
					order = append(order, label)
				}
				counts[label]++
			}
		}

		out := []models.ClassSelection{}
		for _, label := range order {
			out = append(out, models.ClassSelection{ClassName: label, Count: counts[label]})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
		return out, nil
	})
	if err != nil {
		s.logFailure("classSelection", filters, err)
		return []models.ClassSelection{}
	}
	return result
}

// ClassWinRate returns flat win rates per class label, highest first.
func (s *AnalyticsService) ClassWinRate(ctx context.Context, filters models.MatchFilters) []models.ClassWinRate {
	result, err := cache.GetOrCompute(ctx, s.cache, "classWinRate", filters, func(ctx context.Context) ([]models.ClassWinRate, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}
		matches = filterByTeamFormat(matches, filters.TeamFormat)

		type record struct{ wins, losses int }
		stats := make(map[string]*record)
		var order []string
		for _, m := range matches {
			for _, p := range m.Players {
				if p.Flag == models.FlagDrawer {
					continue
				}
				label := utils.NormalizeClass(p.Class)
				if label == "" {
					continue
				}
				r, ok := stats[label]
				if !ok {
					r = &record{}
					stats[label] = r
					order = append(order, label)
				}
				switch p.Flag {
				case models.FlagWinner:
					r.wins++
				case models.FlagLoser:
					r.losses++
				}
			}
		}

		out := []models.ClassWinRate{}
		for _, label := range order {
			r := stats[label]
			rate := 0.0
			if total := r.wins + r.losses; total > 0 {
				rate = float64(r.wins) / float64(total) * 100
			}
			out = append(out, models.ClassWinRate{ClassName: label, WinRate: rate})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].WinRate > out[j].WinRate })
		return out, nil
	})
	if err != nil {
		s.logFailure("classWinRate", filters, err)
		return []models.ClassWinRate{}
	}
	return result
}

// AggregateStats sums the performance counters across every filtered match.
func (s *AnalyticsService) AggregateStats(ctx context.Context, filters models.MatchFilters) models.AggregateStats {
	result, err := cache.GetOrCompute(ctx, s.cache, "aggregateStats", filters, func(ctx context.Context) (models.AggregateStats, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return models.AggregateStats{}, err
		}

		var stats models.AggregateStats
		for _, m := range matches {
			stats.TotalMatches++
			for _, p := range m.Players {
				stats.TotalDamageDealt += p.DamageDealt
				stats.TotalHealing.SelfHealing += p.SelfHealing
				stats.TotalHealing.AllyHealing += p.AllyHealing
				stats.TotalMeatEaten += p.MeatEaten
				// Older documents tracked acquired gold under the plain gold
				// counter.
				if p.GoldAcquired != 0 {
					stats.TotalGoldAcquired += p.GoldAcquired
				} else {
					stats.TotalGoldAcquired += float64(p.Gold)
				}
				stats.TotalAnimalKills.Elk += p.KillsElk
				stats.TotalAnimalKills.Hawk += p.KillsHawk
				stats.TotalAnimalKills.Snake += p.KillsSnake
				stats.TotalAnimalKills.Wolf += p.KillsWolf
				stats.TotalAnimalKills.Bear += p.KillsBear
				stats.TotalAnimalKills.Panther += p.KillsPanther
			}
		}
		stats.TotalHealing.TotalHealing = stats.TotalHealing.SelfHealing + stats.TotalHealing.AllyHealing
		stats.TotalAnimalKills.Total = stats.TotalAnimalKills.Elk + stats.TotalAnimalKills.Hawk +
			stats.TotalAnimalKills.Snake + stats.TotalAnimalKills.Wolf +
			stats.TotalAnimalKills.Bear + stats.TotalAnimalKills.Panther

		matchCount := float64(stats.TotalMatches)
		if matchCount == 0 {
			matchCount = 1
		}
		stats.AveragesPerMatch = models.StatAverages{
			DamageDealt:  stats.TotalDamageDealt / matchCount,
			SelfHealing:  stats.TotalHealing.SelfHealing / matchCount,
			AllyHealing:  stats.TotalHealing.AllyHealing / matchCount,
			MeatEaten:    stats.TotalMeatEaten / matchCount,
			GoldAcquired: stats.TotalGoldAcquired / matchCount,
			AnimalKills:  float64(stats.TotalAnimalKills.Total) / matchCount,
		}
		return stats, nil
	})
	if err != nil {
		s.logFailure("aggregateStats", filters, err)
		return models.AggregateStats{}
	}
	return result
}

// AnimalKillsDistribution derives the per-kind kill breakdown from the
// aggregate totals, largest share first.
func (s *AnalyticsService) AnimalKillsDistribution(ctx context.Context, filters models.MatchFilters) []models.AnimalKillsSlice {
	stats := s.AggregateStats(ctx, filters)
	counts := []int{
		stats.TotalAnimalKills.Elk,
		stats.TotalAnimalKills.Hawk,
		stats.TotalAnimalKills.Snake,
		stats.TotalAnimalKills.Wolf,
		stats.TotalAnimalKills.Bear,
		stats.TotalAnimalKills.Panther,
	}
	total := stats.TotalAnimalKills.Total
	if total == 0 {
		total = 1
	}

	out := make([]models.AnimalKillsSlice, len(animalKinds))
	for i, kind := range animalKinds {
		out[i] = models.AnimalKillsSlice{
			AnimalType: kind,
			Count:      counts[i],
			Percentage: float64(counts[i]) / float64(total) * 100,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// TopHunters ranks players by total animal kills. Only players with at least
// one kill appear.
func (s *AnalyticsService) TopHunters(ctx context.Context, filters models.MatchFilters, limit int) []models.TopHunterEntry {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	keyFilters := filters
	keyFilters.Limit = limit

	result, err := cache.GetOrCompute(ctx, s.cache, "topHunters", keyFilters, func(ctx context.Context) ([]models.TopHunterEntry, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}

		type hunter struct {
			kills   [6]int
			total   int
			matches int
		}
		hunters := make(map[string]*hunter)
		var order []string
		for _, m := range matches {
			for _, p := range m.Players {
				name := utils.NormalizeName(p.PlayerName)
				h, ok := hunters[name]
				if !ok {
					h = &hunter{}
					hunters[name] = h
					order = append(order, name)
				}
				h.matches++
				h.kills[0] += p.KillsElk
				h.kills[1] += p.KillsHawk
				h.kills[2] += p.KillsSnake
				h.kills[3] += p.KillsWolf
				h.kills[4] += p.KillsBear
				h.kills[5] += p.KillsPanther
				h.total = h.kills[0] + h.kills[1] + h.kills[2] + h.kills[3] + h.kills[4] + h.kills[5]
			}
		}

		out := []models.TopHunterEntry{}
		for _, name := range order {
			h := hunters[name]
			if h.total <= 0 {
				continue
			}
			favorite := "None"
			best := 0
			for i, kind := range animalKinds {
				if h.kills[i] > best {
					best = h.kills[i]
					favorite = kind
				}
			}
			out = append(out, models.TopHunterEntry{
				PlayerName:     name,
				TotalKills:     h.total,
				FavoriteAnimal: favorite,
				MatchesPlayed:  h.matches,
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalKills > out[j].TotalKills })
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
	if err != nil {
		s.logFailure("topHunters", filters, err)
		return []models.TopHunterEntry{}
	}
	return result
}

// TopHealers ranks players by combined self plus ally healing. Only players
// with positive healing appear.
func (s *AnalyticsService) TopHealers(ctx context.Context, filters models.MatchFilters, limit int) []models.TopHealerEntry {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	keyFilters := filters
	keyFilters.Limit = limit

	result, err := cache.GetOrCompute(ctx, s.cache, "topHealers", keyFilters, func(ctx context.Context) ([]models.TopHealerEntry, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}

		type healer struct {
			self    float64
			ally    float64
			matches int
		}
		healers := make(map[string]*healer)
		var order []string
		for _, m := range matches {
			for _, p := range m.Players {
				name := utils.NormalizeName(p.PlayerName)
				h, ok := healers[name]
				if !ok {
					h = &healer{}
					healers[name] = h
					order = append(order, name)
				}
				h.matches++
				h.self += p.SelfHealing
				h.ally += p.AllyHealing
			}
		}

		out := []models.TopHealerEntry{}
		for _, name := range order {
			h := healers[name]
			total := h.self + h.ally
			if total <= 0 {
				continue
			}
			out = append(out, models.TopHealerEntry{
				PlayerName:    name,
				TotalHealing:  total,
				SelfHealing:   h.self,
				AllyHealing:   h.ally,
				MatchesPlayed: h.matches,
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalHealing > out[j].TotalHealing })
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
	if err != nil {
		s.logFailure("topHealers", filters, err)
		return []models.TopHealerEntry{}
	}
	return result
}

// RatingHistory reconstructs a player's rating curve within the window.
//
// The series is seeded at the window's start with the player's currently
// stored score for the category, then each chronological match with a defined
// ratingDelta appends a point at its playedAt. Seeding with the current score
// means the curve's absolute level is not a faithful historical
// reconstruction; the shape of the deltas is. Kept as-is deliberately.
func (s *AnalyticsService) RatingHistory(ctx context.Context, filters models.MatchFilters) []models.RatingPoint {
	if filters.PlayerName == "" {
		return []models.RatingPoint{}
	}

	result, err := cache.GetOrCompute(ctx, s.cache, "ratingHistory", filters, func(ctx context.Context) ([]models.RatingPoint, error) {
		matches, err := s.fetchCompleted(ctx, filters)
		if err != nil {
			return nil, err
		}

		name := utils.NormalizeName(filters.PlayerName)
		type appearance struct {
			playedAt time.Time
			delta    *float64
		}
		var appearances []appearance
		for _, m := range matches {
			for _, p := range m.Players {
				if utils.NormalizeName(p.PlayerName) == name {
					appearances = append(appearances, appearance{playedAt: m.PlayedAt, delta: p.RatingDelta})
					break
				}
			}
		}
		sort.SliceStable(appearances, func(i, j int) bool {
			return appearances[i].playedAt.Before(appearances[j].playedAt)
		})

		rating, err := s.players.CurrentScore(ctx, filters.PlayerName, filters.Category)
		if err != nil {
			return nil, err
		}

		start := utils.ParseISODate(filters.StartDate)
		if start.IsZero() {
			start = time.Now().UTC().AddDate(0, 0, -365)
		}
		points := []models.RatingPoint{{Date: utils.DayKey(start), Rating: rating}}
		for _, a := range appearances {
			if a.delta == nil {
				continue
			}
			rating += *a.delta
			points = append(points, models.RatingPoint{Date: utils.DayKey(a.playedAt), Rating: rating})
		}
		return points, nil
	})
	if err != nil {
		s.logFailure("ratingHistory", filters, err)
		return []models.RatingPoint{}
	}
	return result
}

// windowOrTrailingYear resolves the requested window, defaulting each open
// end independently: start to a year ago, end to now.
func windowOrTrailingYear(filters models.MatchFilters) (time.Time, time.Time) {
	start := utils.ParseISODate(filters.StartDate)
	if start.IsZero() {
		start = time.Now().UTC().AddDate(0, 0, -365)
	}
	end := utils.ParseISODate(filters.EndDate)
	if end.IsZero() {
		end = time.Now().UTC()
	}
	return start, end
}

// Overview batches the dashboard's pipelines behind one shared fetch.
func (s *AnalyticsService) Overview(ctx context.Context, filters models.MatchFilters) models.AnalyticsOverview {
	ctx = WithFetchCache(ctx)
	return models.AnalyticsOverview{
		Activity:       s.Activity(ctx, filters),
		WinRate:        s.WinRate(ctx, filters),
		GameLength:     s.GameLength(ctx, filters),
		PlayerActivity: s.PlayerActivity(ctx, filters),
		ClassSelection: s.ClassSelection(ctx, filters),
		ClassWinRate:   s.ClassWinRate(ctx, filters),
		AggregateStats: s.AggregateStats(ctx, filters),
	}
}
