// models/analytics.go
package models

// ActivityPoint is one day in the dense activity series. Days with no matches
// are emitted with a zero count.
type ActivityPoint struct {
	Date  string `json:"date"` // yyyy-mm-dd
	Count int    `json:"count"`
}

// WinRateData tallies outcomes across the filtered participants, or reads a
// single player's stored counters when a player name is given.
type WinRateData struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// ClassPlayerStanding is one row of a per-class leaderboard.
type ClassPlayerStanding struct {
	PlayerName  string  `json:"playerName"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"winRate"`
	RatingDelta float64 `json:"ratingDelta"` // net rating change within the class
}

// ClassStats aggregates one class label across completed matches.
type ClassStats struct {
	ID          string                `json:"id"` // lower-cased, trimmed label
	Category    string                `json:"category,omitempty"`
	TotalGames  int                   `json:"totalGames"`
	TotalWins   int                   `json:"totalWins"`
	TotalLosses int                   `json:"totalLosses"`
	WinRate     float64               `json:"winRate"`
	TopPlayers  []ClassPlayerStanding `json:"topPlayers"`
	UpdatedAt   string                `json:"updatedAt"`
}

// DurationPoint is the average match length for one day, in minutes.
type DurationPoint struct {
	Date            string  `json:"date"`
	AverageDuration float64 `json:"averageDuration"`
}

// PlayerActivityPoint counts distinct players seen in one calendar month.
type PlayerActivityPoint struct {
	Date    string `json:"date"` // first day of the month, yyyy-mm-dd
	Players int    `json:"players"`
}

// ClassSelection is a flat pick-count entry for one class label.
type ClassSelection struct {
	ClassName string `json:"className"`
	Count     int    `json:"count"`
}

// ClassWinRate is a flat win-rate entry for one class label.
type ClassWinRate struct {
	ClassName string  `json:"className"`
	WinRate   float64 `json:"winRate"`
}

// HealingTotals splits healing into self and ally contributions.
type HealingTotals struct {
	SelfHealing  float64 `json:"selfHealing"`
	AllyHealing  float64 `json:"allyHealing"`
	TotalHealing float64 `json:"totalHealing"`
}

// AnimalKills holds the per-kind kill counters and their sum.
type AnimalKills struct {
	Elk     int `json:"elk"`
	Hawk    int `json:"hawk"`
	Snake   int `json:"snake"`
	Wolf    int `json:"wolf"`
	Bear    int `json:"bear"`
	Panther int `json:"panther"`
	Total   int `json:"total"`
}

// StatAverages are per-match averages of the aggregate counters.
type StatAverages struct {
	DamageDealt  float64 `json:"damageDealt"`
	SelfHealing  float64 `json:"selfHealing"`
	AllyHealing  float64 `json:"allyHealing"`
	MeatEaten    float64 `json:"meatEaten"`
	GoldAcquired float64 `json:"goldAcquired"`
	AnimalKills  float64 `json:"animalKills"`
}

// AggregateStats sums performance counters across every filtered match.
type AggregateStats struct {
	TotalMatches      int           `json:"totalMatches"`
	TotalDamageDealt  float64       `json:"totalDamageDealt"`
	TotalHealing      HealingTotals `json:"totalHealing"`
	TotalMeatEaten    float64       `json:"totalMeatEaten"`
	TotalGoldAcquired float64       `json:"totalGoldAcquired"`
	TotalAnimalKills  AnimalKills   `json:"totalAnimalKills"`
	AveragesPerMatch  StatAverages  `json:"averagesPerMatch"`
}

// AnimalKillsSlice is one wedge of the kill-distribution breakdown.
type AnimalKillsSlice struct {
	AnimalType string  `json:"animalType"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TopHunterEntry is one row of the hunting leaderboard.
type TopHunterEntry struct {
	PlayerName     string `json:"playerName"`
	TotalKills     int    `json:"totalKills"`
	FavoriteAnimal string `json:"favoriteAnimal"`
	MatchesPlayed  int    `json:"matchesPlayed"`
}

// TopHealerEntry is one row of the healing leaderboard.
type TopHealerEntry struct {
	PlayerName    string  `json:"playerName"`
	TotalHealing  float64 `json:"totalHealing"`
	SelfHealing   float64 `json:"selfHealing"`
	AllyHealing   float64 `json:"allyHealing"`
	MatchesPlayed int     `json:"matchesPlayed"`
}

// AnalyticsOverview bundles the dashboard pipelines computed off one shared
// match fetch.
type AnalyticsOverview struct {
	Activity       []ActivityPoint       `json:"activity"`
	WinRate        WinRateData           `json:"winRate"`
	GameLength     []DurationPoint       `json:"gameLength"`
	PlayerActivity []PlayerActivityPoint `json:"playerActivity"`
	ClassSelection []ClassSelection      `json:"classSelection"`
	ClassWinRate   []ClassWinRate        `json:"classWinRate"`
	AggregateStats AggregateStats        `json:"aggregateStats"`
}

// RatingPoint is one point of a player's rating curve.
type RatingPoint struct {
	Date   string  `json:"date"` // yyyy-mm-dd
	Rating float64 `json:"rating"`
}
