// services/match_service.go
package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"match-stats-system/models"
	"match-stats-system/store"
	"match-stats-system/utils"
)

// DefaultPageLimit is the page size when the caller does not ask for one.
const DefaultPageLimit = 20

// MatchService plans and executes match queries against the document store
// and loads participant lists in parallel.
type MatchService struct {
	store  store.Store
	logger *logrus.Entry
}

func NewMatchService(st store.Store, logger *logrus.Logger) *MatchService {
	return &MatchService{
		store:  st,
		logger: logger.WithField("component", "matchService"),
	}
}

// Find returns one page of matches for the given filters.
//
// Soft-deleted matches are always excluded. With a state filter, the date
// range applies to that state's own timestamp and results come back in the
// state's natural order: scheduled soonest first, completed newest first.
// Without a state the two timestamp fields are not comparable, so range and
// category filters are ignored and ordering falls back to creation time,
// newest first. A matchNumber filter is an equality applied on top of
// whatever other filters are active; it replaces the ordering, never the
// filters.
//
// When the store reports a missing composite index for the filter+sort
// combination, Find re-runs the query without the sort and reproduces the
// ordering in memory. The fallback covers index-provisioning lag; any other
// store error propagates.
func (s *MatchService) Find(ctx context.Context, filters models.MatchFilters) (models.MatchListResult, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	q := s.store.Matches().Where("isDeleted", "==", false)
	ordered := false

	switch filters.State {
	case models.MatchScheduled:
		q = q.Where("state", "==", string(models.MatchScheduled))
		q = applyDateRange(q, "scheduledAt", filters.StartDate, filters.EndDate)
		if filters.MatchNumber != nil {
			q = q.Where("matchNumber", "==", *filters.MatchNumber)
		} else {
			q = q.OrderBy("scheduledAt", store.Asc)
			ordered = true
		}
	case models.MatchCompleted:
		q = q.Where("state", "==", string(models.MatchCompleted))
		q = applyDateRange(q, "playedAt", filters.StartDate, filters.EndDate)
		if filters.Category != "" {
			q = q.Where("category", "==", filters.Category)
		}
		if filters.MatchNumber != nil {
			q = q.Where("matchNumber", "==", *filters.MatchNumber)
		} else {
			q = q.OrderBy("playedAt", store.Desc)
			ordered = true
		}
	default:
		// Mixed states have no shared timestamp to range over.
		if filters.MatchNumber != nil {
			q = q.Where("matchNumber", "==", *filters.MatchNumber)
		} else {
			q = q.OrderBy("createdAt", store.Desc)
			ordered = true
		}
	}

	if filters.Cursor != "" && ordered {
		q = q.StartAfter(filters.Cursor)
	}
	q = q.Limit(limit)

	docs, err := q.Documents(ctx)
	if store.IsMissingIndex(err) {
		s.logger.WithFields(logrus.Fields{
			"state":    filters.State,
			"category": filters.Category,
		}).Warn("composite index unavailable, falling back to in-memory sort")
		return s.findFallback(ctx, filters, limit)
	}
	if err != nil {
		return models.MatchListResult{}, fmt.Errorf("query matches: %w", err)
	}

	matches := make([]models.Match, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, models.ConvertMatchDoc(doc.Data, doc.ID))
	}
	return pageResult(matches, limit), nil
}

// findFallback re-issues the query with equality filters only, then filters,
// sorts, and truncates in memory. It fetches 2x the page size so the in-memory
// date filter still has a full page to cut from.
func (s *MatchService) findFallback(ctx context.Context, filters models.MatchFilters, limit int) (models.MatchListResult, error) {
	q := s.store.Matches().Where("isDeleted", "==", false)
	if filters.State != "" {
		q = q.Where("state", "==", string(filters.State))
	}
	if filters.MatchNumber != nil {
		q = q.Where("matchNumber", "==", *filters.MatchNumber)
	}
	if filters.State == models.MatchCompleted && filters.Category != "" {
		q = q.Where("category", "==", filters.Category)
	}

	docs, err := q.Limit(2 * limit).Documents(ctx)
	if err != nil {
		return models.MatchListResult{}, fmt.Errorf("fallback query matches: %w", err)
	}

	matches := make([]models.Match, 0, len(docs))
	for _, doc := range docs {
		m := models.ConvertMatchDoc(doc.Data, doc.ID)
		if filters.State != "" && !inDateRange(m, filters) {
			continue
		}
		matches = append(matches, m)
	}

	SortMatches(matches, filters.State)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return pageResult(matches, limit), nil
}

// SortMatches orders matches the way the indexed path would: scheduled by
// scheduledAt ascending, completed by playedAt descending, mixed by createdAt
// descending. One comparator serves both paths so fallback results stay
// order-equivalent with indexed results.
func SortMatches(matches []models.Match, state models.MatchState) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matchLess(matches[i], matches[j], state)
	})
}

func matchLess(a, b models.Match, state models.MatchState) bool {
	switch state {
	case models.MatchScheduled:
		return a.ScheduledAt.Before(b.ScheduledAt)
	case models.MatchCompleted:
		return a.PlayedAt.After(b.PlayedAt)
	default:
		return a.CreatedAt.After(b.CreatedAt)
	}
}

func pageResult(matches []models.Match, limit int) models.MatchListResult {
	result := models.MatchListResult{
		Matches: matches,
		HasMore: len(matches) == limit,
	}
	if len(matches) > 0 {
		result.NextCursor = matches[len(matches)-1].ID
	}
	return result
}

func applyDateRange(q store.Query, field, startDate, endDate string) store.Query {
	if start := utils.ParseISODate(startDate); !start.IsZero() {
		q = q.Where(field, ">=", start)
	}
	if end := endOfRange(endDate); !end.IsZero() {
		q = q.Where(field, "<=", end)
	}
	return q
}

// endOfRange makes a bare end date inclusive by extending it to the last
// instant of that day.
func endOfRange(endDate string) time.Time {
	end := utils.ParseISODate(endDate)
	if end.IsZero() {
		return end
	}
	if len(endDate) == len(utils.DayKeyFormat) {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return end
}

func inDateRange(m models.Match, filters models.MatchFilters) bool {
	ts := m.PlayedAt
	if m.State == models.MatchScheduled {
		ts = m.ScheduledAt
	}
	if start := utils.ParseISODate(filters.StartDate); !start.IsZero() && ts.Before(start) {
		return false
	}
	if end := endOfRange(filters.EndDate); !end.IsZero() && ts.After(end) {
		return false
	}
	return true
}

// LoadParticipants fetches every match's participant list concurrently and
// returns them keyed by match id, each list sorted by positionIndex. One
// failed fetch fails the whole batch; partial maps are never returned.
func (s *MatchService) LoadParticipants(ctx context.Context, matchIDs []string) (map[string][]models.Participant, error) {
	out := make(map[string][]models.Participant, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, id := range matchIDs {
		id := id
		g.Go(func() error {
			docs, err := s.store.Participants(ctx, id)
			if err != nil {
				return fmt.Errorf("load participants for match %s: %w", id, err)
			}
			players := make([]models.Participant, 0, len(docs))
			for _, doc := range docs {
				players = append(players, models.ConvertParticipantDoc(doc.Data, doc.ID))
			}
			sort.Slice(players, func(i, j int) bool {
				return players[i].PositionIndex < players[j].PositionIndex
			})
			mu.Lock()
			out[id] = players
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindWithParticipants runs Find and zips each match with its participant
// list. Matches whose participant fetch returned nothing get an empty slice,
// not nil.
func (s *MatchService) FindWithParticipants(ctx context.Context, filters models.MatchFilters) (models.MatchDetailResult, error) {
	page, err := s.Find(ctx, filters)
	if err != nil {
		return models.MatchDetailResult{}, err
	}

	ids := make([]string, len(page.Matches))
	for i, m := range page.Matches {
		ids[i] = m.ID
	}
	participants, err := s.LoadParticipants(ctx, ids)
	if err != nil {
		return models.MatchDetailResult{}, err
	}

	detailed := make([]models.MatchWithParticipants, len(page.Matches))
	for i, m := range page.Matches {
		players := participants[m.ID]
		if players == nil {
			players = []models.Participant{}
		}
		detailed[i] = models.MatchWithParticipants{Match: m, Players: players}
	}
	return models.MatchDetailResult{
		Matches:    detailed,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}

// GetMatchByID fetches one match with its participants. Missing and
// soft-deleted matches both return (nil, nil). Store errors propagate: this
// is an identity lookup, not a best-effort read.
func (s *MatchService) GetMatchByID(ctx context.Context, id string) (*models.MatchWithParticipants, error) {
	doc, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	m := models.ConvertMatchDoc(doc.Data, doc.ID)
	if m.IsDeleted {
		return nil, nil
	}

	participants, err := s.LoadParticipants(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	players := participants[id]
	if players == nil {
		players = []models.Participant{}
	}
	return &models.MatchWithParticipants{Match: m, Players: players}, nil
}
