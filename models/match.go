// models/match.go
package models

import "time"

// MatchState distinguishes matches that are still on the calendar from
// matches that have been played and reported.
type MatchState string

const (
	MatchScheduled MatchState = "scheduled"
	MatchCompleted MatchState = "completed"
)

// ResultFlag is a participant's outcome within one match.
type ResultFlag string

const (
	FlagWinner ResultFlag = "winner"
	FlagLoser  ResultFlag = "loser"
	FlagDrawer ResultFlag = "drawer"
)

// Match is one played or scheduled contest. Both states are immutable facts
// once fetched; a scheduled match is promoted to completed by an external
// workflow, not by this service.
type Match struct {
	ID          string     `json:"id"`
	MatchNumber int        `json:"matchNumber"`
	State       MatchState `json:"state"`
	CreatorName string     `json:"creatorName"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Scheduled matches only.
	ScheduledAt time.Time `json:"scheduledAt,omitempty"`

	// Completed matches only.
	PlayedAt        time.Time `json:"playedAt,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	MatchName       string    `json:"matchName,omitempty"`
	MapName         string    `json:"mapName,omitempty"`
	Category        string    `json:"category,omitempty"`
	PlayerNames     []string  `json:"playerNames,omitempty"`
	PlayerCount     int       `json:"playerCount,omitempty"`
	Verified        bool      `json:"verified"`

	// Soft delete. Every query excludes deleted matches.
	IsDeleted bool       `json:"isDeleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Participant is one player's record within one match.
type Participant struct {
	ID            string     `json:"id"`
	MatchID       string     `json:"matchId"`
	PlayerName    string     `json:"playerName"`
	PositionIndex int        `json:"positionIndex"`
	Flag          ResultFlag `json:"flag"`
	Category      string     `json:"category,omitempty"`
	Class         string     `json:"class,omitempty"`

	// Rating fields are pointers: a nil delta means the match never adjusted
	// this player's rating, which is different from a delta of zero.
	RatingDelta  *float64 `json:"ratingDelta,omitempty"`
	RatingBefore *float64 `json:"ratingBefore,omitempty"`
	RatingAfter  *float64 `json:"ratingAfter,omitempty"`

	// Performance counters. Absent counters read as zero.
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	Gold         int     `json:"gold"`
	DamageDealt  float64 `json:"damageDealt"`
	DamageTaken  float64 `json:"damageTaken"`
	SelfHealing  float64 `json:"selfHealing"`
	AllyHealing  float64 `json:"allyHealing"`
	MeatEaten    float64 `json:"meatEaten"`
	GoldAcquired float64 `json:"goldAcquired"`

	KillsElk     int `json:"killsElk"`
	KillsHawk    int `json:"killsHawk"`
	KillsSnake   int `json:"killsSnake"`
	KillsWolf    int `json:"killsWolf"`
	KillsBear    int `json:"killsBear"`
	KillsPanther int `json:"killsPanther"`

	CreatedAt time.Time `json:"createdAt"`
}

// MatchWithParticipants zips a match with its participant list, sorted by
// PositionIndex ascending.
type MatchWithParticipants struct {
	Match
	Players []Participant `json:"players"`
}

// MatchFilters are the filter parameters accepted by Find and every
// aggregation.
type MatchFilters struct {
	State       MatchState `json:"state,omitempty"`
	StartDate   string     `json:"startDate,omitempty"` // inclusive ISO date
	EndDate     string     `json:"endDate,omitempty"`   // inclusive ISO date
	Category    string     `json:"category,omitempty"`
	PlayerName  string     `json:"playerName,omitempty"`
	TeamFormat  string     `json:"teamFormat,omitempty"` // "{winners}v{losers}"
	MatchNumber *int       `json:"matchNumber,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Cursor      string     `json:"cursor,omitempty"`
}

// MatchListResult is one page of planner output.
type MatchListResult struct {
	Matches    []Match `json:"matches"`
	NextCursor string  `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// MatchDetailResult is one page of matches zipped with their participants.
type MatchDetailResult struct {
	Matches    []MatchWithParticipants `json:"matches"`
	NextCursor string                  `json:"nextCursor,omitempty"`
	HasMore    bool                    `json:"hasMore"`
}

// CreateParticipant is the per-player input when recording a completed match.
type CreateParticipant struct {
	PlayerName    string     `json:"playerName"`
	PositionIndex int        `json:"positionIndex"`
	Flag          ResultFlag `json:"flag"`
	Class         string     `json:"class,omitempty"`

	Kills        int     `json:"kills,omitempty"`
	Deaths       int     `json:"deaths,omitempty"`
	Assists      int     `json:"assists,omitempty"`
	Gold         int     `json:"gold,omitempty"`
	DamageDealt  float64 `json:"damageDealt,omitempty"`
	DamageTaken  float64 `json:"damageTaken,omitempty"`
	SelfHealing  float64 `json:"selfHealing,omitempty"`
	AllyHealing  float64 `json:"allyHealing,omitempty"`
	MeatEaten    float64 `json:"meatEaten,omitempty"`
	GoldAcquired float64 `json:"goldAcquired,omitempty"`

	KillsElk     int `json:"killsElk,omitempty"`
	KillsHawk    int `json:"killsHawk,omitempty"`
	KillsSnake   int `json:"killsSnake,omitempty"`
	KillsWolf    int `json:"killsWolf,omitempty"`
	KillsBear    int `json:"killsBear,omitempty"`
	KillsPanther int `json:"killsPanther,omitempty"`
}

// CreateCompletedMatch is the input for recording a finished match.
type CreateCompletedMatch struct {
	MatchNumber int                 `json:"matchNumber"`
	PlayedAt    string              `json:"playedAt"` // ISO timestamp
	Duration    int                 `json:"durationSeconds"`
	MatchName   string              `json:"matchName"`
	MapName     string              `json:"mapName"`
	CreatorName string              `json:"creatorName"`
	Category    string              `json:"category,omitempty"`
	Verified    bool                `json:"verified,omitempty"`
	Players     []CreateParticipant `json:"players"`
}

// CreateScheduledMatch is the input for putting a match on the calendar.
type CreateScheduledMatch struct {
	MatchNumber int    `json:"matchNumber,omitempty"` // auto-assigned when 0
	ScheduledAt string `json:"scheduledAt"`           // ISO timestamp
	CreatorName string `json:"creatorName,omitempty"`
	Category    string `json:"category,omitempty"`
}

// UpdateMatch carries the mutable fields of an existing match. Nil pointers
// leave the stored value untouched.
type UpdateMatch struct {
	MatchName *string `json:"matchName,omitempty"`
	MapName   *string `json:"mapName,omitempty"`
	Category  *string `json:"category,omitempty"`
	Verified  *bool   `json:"verified,omitempty"`

	ScheduledAt *string `json:"scheduledAt,omitempty"`
}
