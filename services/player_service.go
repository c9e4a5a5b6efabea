// services/player_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"match-stats-system/models"
	"match-stats-system/utils"
)

// PlayerService owns the stored per-player per-category aggregates: current
// rating score and win/loss/draw counters. Names are case-folded and the
// empty category maps to "default" before any lookup or write.
type PlayerService struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewPlayerService(db *gorm.DB, logger *logrus.Logger) *PlayerService {
	return &PlayerService{
		db:     db,
		logger: logger.WithField("component", "playerService"),
	}
}

// GetStats returns the stored aggregate for (player, category), or nil when
// the player has no record yet.
func (s *PlayerService) GetStats(ctx context.Context, playerName, category string) (*models.PlayerStats, error) {
	name := utils.NormalizeName(playerName)
	cat := utils.NormalizeCategory(category)

	var stats models.PlayerStats
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND category = ?", name, cat).
		First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load player stats %s/%s: %w", name, cat, err)
	}
	return &stats, nil
}

// CurrentScore returns the player's stored rating for the category, or the
// starting score when no record exists.
func (s *PlayerService) CurrentScore(ctx context.Context, playerName, category string) (float64, error) {
	stats, err := s.GetStats(ctx, playerName, category)
	if err != nil {
		return 0, err
	}
	if stats == nil {
		return EloStartingScore, nil
	}
	return stats.Score, nil
}

// ApplyResult adjusts the stored score by delta and bumps the counter for the
// outcome. Creates the record at the starting score on first sight.
func (s *PlayerService) ApplyResult(ctx context.Context, playerName, category string, delta float64, flag models.ResultFlag) error {
	name := utils.NormalizeName(playerName)
	cat := utils.NormalizeCategory(category)

	var stats models.PlayerStats
	err := s.db.WithContext(ctx).
		Where("player_name = ? AND category = ?", name, cat).
		FirstOrCreate(&stats, models.PlayerStats{
			PlayerName: name,
			Category:   cat,
			Score:      EloStartingScore,
		}).Error
	if err != nil {
		return fmt.Errorf("upsert player stats %s/%s: %w", name, cat, err)
	}

	stats.Score += delta
	switch flag {
	case models.FlagWinner:
		stats.Wins++
	case models.FlagLoser:
		stats.Losses++
	case models.FlagDrawer:
		stats.Draws++
	}

	if err := s.db.WithContext(ctx).Save(&stats).Error; err != nil {
		return fmt.Errorf("save player stats %s/%s: %w", name, cat, err)
	}
	return nil
}
