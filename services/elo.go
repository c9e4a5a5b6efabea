// services/elo.go
package services

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"

	"match-stats-system/models"
	"match-stats-system/store"
	"match-stats-system/utils"
)

const (
	// EloKFactor scales how much one match moves a rating.
	EloKFactor = 32
	// EloStartingScore is the rating assigned before any recorded match.
	EloStartingScore = 1000
)

// ExpectedScore is the standard Elo win probability of player against
// opponent.
func ExpectedScore(player, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-player)/400))
}

// CalculateEloChange returns the rating adjustment for one result, rounded to
// two decimals. actual is 1 for a win, 0 for a loss, 0.5 for a draw.
func CalculateEloChange(player, opponent, actual float64) float64 {
	change := EloKFactor * (actual - ExpectedScore(player, opponent))
	return math.Round(change*100) / 100
}

// CalculateTeamElo averages a team's ratings, rounded to two decimals. An
// empty team rates at the starting score.
func CalculateTeamElo(scores []float64) float64 {
	if len(scores) == 0 {
		return EloStartingScore
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}

// RatingService applies rating changes after a completed match: each
// participant's document gets its delta/before/after fields and the stored
// player counters update. Opponent strength is the opposing team's average
// rating; drawers are rated against the winning team when one exists.
type RatingService struct {
	store   store.Store
	players *PlayerService
	logger  *logrus.Entry
}

func NewRatingService(st store.Store, players *PlayerService, logger *logrus.Logger) *RatingService {
	return &RatingService{
		store:   st,
		players: players,
		logger:  logger.WithField("component", "ratingService"),
	}
}

type ratedParticipant struct {
	participant models.Participant
	score       float64
}

// UpdateMatchRatings computes and persists rating changes for every
// participant of one completed match.
func (s *RatingService) UpdateMatchRatings(ctx context.Context, matchID string, participants []models.Participant, category string) error {
	category = utils.NormalizeCategory(category)

	var winners, losers, drawers []ratedParticipant
	for _, p := range participants {
		score, err := s.players.CurrentScore(ctx, p.PlayerName, category)
		if err != nil {
			return err
		}
		rated := ratedParticipant{participant: p, score: score}
		switch p.Flag {
		case models.FlagWinner:
			winners = append(winners, rated)
		case models.FlagLoser:
			losers = append(losers, rated)
		default:
			drawers = append(drawers, rated)
		}
	}

	winnerTeam := CalculateTeamElo(scoresOf(winners))
	loserTeam := CalculateTeamElo(scoresOf(losers))

	apply := func(group []ratedParticipant, opponent, actual float64) error {
		for _, r := range group {
			delta := CalculateEloChange(r.score, opponent, actual)
			if err := s.persistRating(ctx, matchID, r, delta, category); err != nil {
				return err
			}
		}
		return nil
	}

	// A one-sided match has no opposing team to rate against: winners and
	// losers keep their scores (delta 0) while their counters still advance.
	if len(winners) > 0 && len(losers) > 0 {
		if err := apply(winners, loserTeam, 1); err != nil {
			return err
		}
		if err := apply(losers, winnerTeam, 0); err != nil {
			return err
		}
	} else {
		for _, r := range append(winners, losers...) {
			if err := s.persistRating(ctx, matchID, r, 0, category); err != nil {
				return err
			}
		}
	}
	drawOpponent := winnerTeam
	if len(winners) == 0 {
		drawOpponent = loserTeam
	}
	return apply(drawers, drawOpponent, 0.5)
}

func (s *RatingService) persistRating(ctx context.Context, matchID string, r ratedParticipant, delta float64, category string) error {
	err := s.store.UpdateParticipant(ctx, matchID, r.participant.ID, map[string]any{
		"ratingDelta":  delta,
		"ratingBefore": r.score,
		"ratingAfter":  r.score + delta,
	})
	if err != nil {
		return err
	}
	return s.players.ApplyResult(ctx, r.participant.PlayerName, category, delta, r.participant.Flag)
}

func scoresOf(group []ratedParticipant) []float64 {
	scores := make([]float64, len(group))
	for i, r := range group {
		scores[i] = r.score
	}
	return scores
}
