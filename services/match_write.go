// services/match_write.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"match-stats-system/cache"
	"match-stats-system/models"
	"match-stats-system/store"
	"match-stats-system/utils"
)

var (
	// ErrDuplicateMatchNumber rejects recording a match number that already
	// exists.
	ErrDuplicateMatchNumber = errors.New("match number already recorded")
	// ErrMatchNotFound is returned by mutations targeting a missing or
	// soft-deleted match.
	ErrMatchNotFound = errors.New("match not found")
)

// MatchWriteService is the mutation path: create, update, delete. Every
// successful mutation publishes a category-scoped cache invalidation on the
// bus; publishing is fire-and-forget and never fails the mutation.
type MatchWriteService struct {
	store   store.Store
	matches *MatchService
	ratings *RatingService
	bus     *cache.InvalidationBus
	logger  *logrus.Entry
}

func NewMatchWriteService(st store.Store, matches *MatchService, ratings *RatingService, bus *cache.InvalidationBus, logger *logrus.Logger) *MatchWriteService {
	return &MatchWriteService{
		store:   st,
		matches: matches,
		ratings: ratings,
		bus:     bus,
		logger:  logger.WithField("component", "matchWriteService"),
	}
}

// CreateCompletedMatch records a finished match with its participants, then
// applies rating changes. A rating failure only logs a warning: the match is
// already recorded and ratings can be recomputed, while failing here would
// force the reporter to resubmit and trip the duplicate check.
func (s *MatchWriteService) CreateCompletedMatch(ctx context.Context, input models.CreateCompletedMatch) (*models.MatchWithParticipants, error) {
	if input.MatchNumber <= 0 {
		return nil, fmt.Errorf("matchNumber must be positive")
	}
	playedAt := utils.ParseISODate(input.PlayedAt)
	if playedAt.IsZero() {
		return nil, fmt.Errorf("playedAt is not a valid timestamp: %q", input.PlayedAt)
	}
	if len(input.Players) < 2 {
		return nil, fmt.Errorf("a completed match needs at least 2 participants, got %d", len(input.Players))
	}

	existing, err := s.matches.Find(ctx, models.MatchFilters{MatchNumber: &input.MatchNumber, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("check match number %d: %w", input.MatchNumber, err)
	}
	if len(existing.Matches) > 0 {
		return nil, fmt.Errorf("match %d: %w", input.MatchNumber, ErrDuplicateMatchNumber)
	}

	now := time.Now().UTC()
	playerNames := make([]string, len(input.Players))
	for i, p := range input.Players {
		playerNames[i] = p.PlayerName
	}

	matchID, err := s.store.InsertMatch(ctx, map[string]any{
		"matchNumber":     input.MatchNumber,
		"state":           string(models.MatchCompleted),
		"playedAt":        playedAt,
		"durationSeconds": input.Duration,
		"matchName":       input.MatchName,
		"mapName":         input.MapName,
		"creatorName":     input.CreatorName,
		"category":        input.Category,
		"verified":        input.Verified,
		"playerNames":     playerNames,
		"playerCount":     len(input.Players),
		"isDeleted":       false,
		"createdAt":       now,
		"updatedAt":       now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert match %d: %w", input.MatchNumber, err)
	}

	participants := make([]models.Participant, 0, len(input.Players))
	for _, p := range input.Players {
		data := participantDoc(matchID, input.Category, p, now)
		participantID, err := s.store.InsertParticipant(ctx, matchID, data)
		if err != nil {
			return nil, fmt.Errorf("insert participant %s: %w", p.PlayerName, err)
		}
		participants = append(participants, models.ConvertParticipantDoc(data, participantID))
	}

	if err := s.ratings.UpdateMatchRatings(ctx, matchID, participants, input.Category); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"matchId":     matchID,
			"matchNumber": input.MatchNumber,
		}).Warn("rating update failed, match recorded without rating changes")
	}

	s.bus.Publish(input.Category)
	return s.matches.GetMatchByID(ctx, matchID)
}

// CreateScheduledMatch puts a match on the calendar. A zero matchNumber is
// auto-assigned as one past the highest existing number, deleted matches
// included so numbers are never reused.
func (s *MatchWriteService) CreateScheduledMatch(ctx context.Context, input models.CreateScheduledMatch) (*models.MatchWithParticipants, error) {
	scheduledAt := utils.ParseISODate(input.ScheduledAt)
	if scheduledAt.IsZero() {
		return nil, fmt.Errorf("scheduledAt is not a valid timestamp: %q", input.ScheduledAt)
	}

	matchNumber := input.MatchNumber
	if matchNumber <= 0 {
		next, err := s.nextMatchNumber(ctx)
		if err != nil {
			return nil, err
		}
		matchNumber = next
	}

	now := time.Now().UTC()
	matchID, err := s.store.InsertMatch(ctx, map[string]any{
		"matchNumber": matchNumber,
		"state":       string(models.MatchScheduled),
		"scheduledAt": scheduledAt,
		"creatorName": input.CreatorName,
		"category":    input.Category,
		"isDeleted":   false,
		"createdAt":   now,
		"updatedAt":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("insert scheduled match %d: %w", matchNumber, err)
	}

	s.bus.Publish(input.Category)
	return s.matches.GetMatchByID(ctx, matchID)
}

func (s *MatchWriteService) nextMatchNumber(ctx context.Context) (int, error) {
	docs, err := s.store.Matches().OrderBy("matchNumber", store.Desc).Limit(1).Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("find highest match number: %w", err)
	}
	if len(docs) == 0 {
		return 1, nil
	}
	return models.ConvertMatchDoc(docs[0].Data, docs[0].ID).MatchNumber + 1, nil
}

// UpdateMatch merges the non-nil fields into an existing match.
func (s *MatchWriteService) UpdateMatch(ctx context.Context, id string, input models.UpdateMatch) (*models.MatchWithParticipants, error) {
	current, err := s.matches.GetMatchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrMatchNotFound
	}

	fields := map[string]any{"updatedAt": time.Now().UTC()}
	if input.MatchName != nil {
		fields["matchName"] = *input.MatchName
	}
	if input.MapName != nil {
		fields["mapName"] = *input.MapName
	}
	if input.Category != nil {
		fields["category"] = *input.Category
	}
	if input.Verified != nil {
		fields["verified"] = *input.Verified
	}
	if input.ScheduledAt != nil {
		scheduledAt := utils.ParseISODate(*input.ScheduledAt)
		if scheduledAt.IsZero() {
			return nil, fmt.Errorf("scheduledAt is not a valid timestamp: %q", *input.ScheduledAt)
		}
		fields["scheduledAt"] = scheduledAt
	}

	if err := s.store.UpdateMatch(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update match %s: %w", id, err)
	}

	// Moving a match between categories stales both of them.
	s.bus.Publish(current.Category)
	if input.Category != nil && *input.Category != current.Category {
		s.bus.Publish(*input.Category)
	}
	return s.matches.GetMatchByID(ctx, id)
}

// DeleteMatch soft-deletes by default so a mistaken delete is recoverable.
// With permanent set, the match and its participants are removed outright.
func (s *MatchWriteService) DeleteMatch(ctx context.Context, id string, permanent bool) error {
	current, err := s.matches.GetMatchByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrMatchNotFound
	}

	if permanent {
		if err := s.store.DeleteMatch(ctx, id); err != nil {
			return fmt.Errorf("delete match %s: %w", id, err)
		}
	} else {
		now := time.Now().UTC()
		err := s.store.UpdateMatch(ctx, id, map[string]any{
			"isDeleted": true,
			"deletedAt": now,
			"updatedAt": now,
		})
		if err != nil {
			return fmt.Errorf("soft delete match %s: %w", id, err)
		}
	}

	s.bus.Publish(current.Category)
	return nil
}

func participantDoc(matchID, category string, p models.CreateParticipant, now time.Time) map[string]any {
	flag := p.Flag
	if flag != models.FlagWinner && flag != models.FlagLoser && flag != models.FlagDrawer {
		flag = models.FlagDrawer
	}
	return map[string]any{
		"matchId":       matchID,
		"playerName":    p.PlayerName,
		"positionIndex": p.PositionIndex,
		"flag":          string(flag),
		"category":      category,
		"class":         p.Class,
		"kills":         p.Kills,
		"deaths":        p.Deaths,
		"assists":       p.Assists,
		"gold":          p.Gold,
		"damageDealt":   p.DamageDealt,
		"damageTaken":   p.DamageTaken,
		"selfHealing":   p.SelfHealing,
		"allyHealing":   p.AllyHealing,
		"meatEaten":     p.MeatEaten,
		"goldAcquired":  p.GoldAcquired,
		"killsElk":      p.KillsElk,
		"killsHawk":     p.KillsHawk,
		"killsSnake":    p.KillsSnake,
		"killsWolf":     p.KillsWolf,
		"killsBear":     p.KillsBear,
		"killsPanther":  p.KillsPanther,
		"createdAt":     now,
	}
}
