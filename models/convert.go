// models/convert.go
package models

import "time"

// Conversion from untyped store documents to typed records. The stored schema
// has grown over several versions, so old documents are missing newer fields
// and a few carry the wrong type. Conversion therefore never fails: anything
// missing or malformed degrades to the zero value for its field.

// ConvertMatchDoc builds a Match from a raw document map.
func ConvertMatchDoc(data map[string]any, id string) Match {
	state := MatchState(asString(data["state"]))
	if state != MatchScheduled && state != MatchCompleted {
		// Documents written before the scheduled-match era carry no state.
		state = MatchCompleted
	}

	m := Match{
		ID:          id,
		MatchNumber: asInt(data["matchNumber"]),
		State:       state,
		CreatorName: asString(data["creatorName"]),
		CreatedAt:   asTime(data["createdAt"]),
		UpdatedAt:   asTime(data["updatedAt"]),
		IsDeleted:   asBool(data["isDeleted"]),
	}
	if t := asTime(data["deletedAt"]); !t.IsZero() {
		m.DeletedAt = &t
	}

	if state == MatchScheduled {
		m.ScheduledAt = asTime(data["scheduledAt"])
		m.Category = asString(data["category"])
		return m
	}

	m.PlayedAt = asTime(data["playedAt"])
	m.DurationSeconds = asInt(data["durationSeconds"])
	m.MatchName = asString(data["matchName"])
	m.MapName = asString(data["mapName"])
	m.Category = asString(data["category"])
	m.Verified = asBool(data["verified"])
	m.PlayerNames = asStringSlice(data["playerNames"])
	m.PlayerCount = asInt(data["playerCount"])
	if m.PlayerCount == 0 {
		m.PlayerCount = len(m.PlayerNames)
	}
	return m
}

// ConvertParticipantDoc builds a Participant from a raw document map.
func ConvertParticipantDoc(data map[string]any, id string) Participant {
	flag := ResultFlag(asString(data["flag"]))
	if flag != FlagWinner && flag != FlagLoser && flag != FlagDrawer {
		flag = FlagDrawer
	}

	return Participant{
		ID:            id,
		MatchID:       asString(data["matchId"]),
		PlayerName:    asString(data["playerName"]),
		PositionIndex: asInt(data["positionIndex"]),
		Flag:          flag,
		Category:      asString(data["category"]),
		Class:         asString(data["class"]),
		RatingDelta:   asFloatPtr(data["ratingDelta"]),
		RatingBefore:  asFloatPtr(data["ratingBefore"]),
		RatingAfter:   asFloatPtr(data["ratingAfter"]),
		Kills:         asInt(data["kills"]),
		Deaths:        asInt(data["deaths"]),
		Assists:       asInt(data["assists"]),
		Gold:          asInt(data["gold"]),
		DamageDealt:   asFloat(data["damageDealt"]),
		DamageTaken:   asFloat(data["damageTaken"]),
		SelfHealing:   asFloat(data["selfHealing"]),
		AllyHealing:   asFloat(data["allyHealing"]),
		MeatEaten:     asFloat(data["meatEaten"]),
		GoldAcquired:  asFloat(data["goldAcquired"]),
		KillsElk:      asInt(data["killsElk"]),
		KillsHawk:     asInt(data["killsHawk"]),
		KillsSnake:    asInt(data["killsSnake"]),
		KillsWolf:     asInt(data["killsWolf"]),
		KillsBear:     asInt(data["killsBear"]),
		KillsPanther:  asInt(data["killsPanther"]),
		CreatedAt:     asTime(data["createdAt"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asFloat accepts every numeric type the store may hand back. Document stores
// round-trip integers as int64 and everything else as float64, but older
// writers stored plain ints.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}

// asFloatPtr keeps the absent/present distinction for optional numerics.
func asFloatPtr(v any) *float64 {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		f := asFloat(v)
		return &f
	}
	return nil
}

// asTime accepts time values, RFC 3339 strings, and plain ISO dates.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, asString(e))
		}
		return out
	}
	return []string{}
}
