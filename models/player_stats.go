// models/player_stats.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerStats is the stored per-player per-category aggregate: current rating
// score plus win/loss/draw counters. It is written by the rating update after
// a completed match is recorded and read by the win-rate shortcut and the
// rating-history seed.
type PlayerStats struct {
	ID uint `json:"-" gorm:"primaryKey"`

	// PlayerName is stored case-folded; lookups fold before querying.
	PlayerName string `json:"playerName" gorm:"uniqueIndex:idx_player_category;not null"`
	Category   string `json:"category" gorm:"uniqueIndex:idx_player_category;not null;default:'default'"`

	Score  float64 `json:"score" gorm:"default:1000"`
	Wins   int     `json:"wins" gorm:"default:0"`
	Losses int     `json:"losses" gorm:"default:0"`
	Draws  int     `json:"draws" gorm:"default:0"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
