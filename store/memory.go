// store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used for local development and tests.
// It reproduces the behavior the planner depends on, including the
// missing-index failure mode: in strict mode a sorted query whose filter
// fields are not covered by a registered composite index fails with
// ErrMissingIndex, exactly like a store whose index is still provisioning.
type MemoryStore struct {
	mu           sync.RWMutex
	matches      map[string]map[string]any
	matchOrder   []string // insertion order, keeps unordered scans deterministic
	participants map[string][]Document

	strict  bool
	indexes map[string]bool // canonical field-set → available
}

// NewMemoryStore returns an empty store with index checking disabled, so
// every query is servable.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:      make(map[string]map[string]any),
		participants: make(map[string][]Document),
		indexes:      make(map[string]bool),
	}
}

// RequireIndexes toggles strict mode. With strict mode on, only queries whose
// filter+sort field set matches a registered index succeed.
func (s *MemoryStore) RequireIndexes(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strict = on
}

// AddIndex registers a composite index over the given fields.
func (s *MemoryStore) AddIndex(fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes[indexKey(fields)] = true
}

func indexKey(fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (s *MemoryStore) Matches() Query {
	return memQuery{store: s, limit: -1}
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	return &Document{ID: id, Data: cloneMap(data)}, nil
}

func (s *MemoryStore) Participants(_ context.Context, matchID string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.participants[matchID]
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{ID: d.ID, Data: cloneMap(d.Data)}
	}
	return out, nil
}

func (s *MemoryStore) InsertMatch(_ context.Context, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.matches[id] = cloneMap(data)
	s.matchOrder = append(s.matchOrder, id)
	return id, nil
}

func (s *MemoryStore) InsertParticipant(_ context.Context, matchID string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[matchID]; !ok {
		return "", fmt.Errorf("match %q not found", matchID)
	}
	id := uuid.NewString()
	s.participants[matchID] = append(s.participants[matchID], Document{ID: id, Data: cloneMap(data)})
	return id, nil
}

func (s *MemoryStore) UpdateMatch(_ context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.matches[id]
	if !ok {
		return fmt.Errorf("match %q not found", id)
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

func (s *MemoryStore) UpdateParticipant(_ context.Context, matchID, participantID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.participants[matchID] {
		if d.ID == participantID {
			for k, v := range fields {
				s.participants[matchID][i].Data[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("participant %q not found in match %q", participantID, matchID)
}

func (s *MemoryStore) DeleteMatch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[id]; !ok {
		return fmt.Errorf("match %q not found", id)
	}
	delete(s.matches, id)
	delete(s.participants, id)
	for i, mid := range s.matchOrder {
		if mid == id {
			s.matchOrder = append(s.matchOrder[:i], s.matchOrder[i+1:]...)
			break
		}
	}
	return nil
}

type condition struct {
	field string
	op    string
	value any
}

type memQuery struct {
	store      *MemoryStore
	conditions []condition
	orderField string
	orderDir   Direction
	ordered    bool
	cursorID   string
	limit      int
}

func (q memQuery) Where(field, op string, value any) Query {
	q.conditions = append(append([]condition(nil), q.conditions...), condition{field, op, value})
	return q
}

func (q memQuery) OrderBy(field string, dir Direction) Query {
	q.orderField = field
	q.orderDir = dir
	q.ordered = true
	return q
}

func (q memQuery) StartAfter(docID string) Query {
	q.cursorID = docID
	return q
}

func (q memQuery) Limit(n int) Query {
	q.limit = n
	return q
}

func (q memQuery) Documents(_ context.Context) ([]Document, error) {
	s := q.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := q.checkIndex(); err != nil {
		return nil, err
	}

	var docs []Document
	for _, id := range s.matchOrder {
		data := s.matches[id]
		if q.matches(data) {
			docs = append(docs, Document{ID: id, Data: cloneMap(data)})
		}
	}

	if q.ordered {
		field, dir := q.orderField, q.orderDir
		sort.SliceStable(docs, func(i, j int) bool {
			less := compareValues(docs[i].Data[field], docs[j].Data[field]) < 0
			if dir == Desc {
				return !less && compareValues(docs[i].Data[field], docs[j].Data[field]) != 0
			}
			return less
		})
	}

	if q.cursorID != "" {
		start := 0
		for i, d := range docs {
			if d.ID == q.cursorID {
				start = i + 1
				break
			}
		}
		docs = docs[start:]
	}

	if q.limit >= 0 && len(docs) > q.limit {
		docs = docs[:q.limit]
	}
	return docs, nil
}

// checkIndex mirrors the real store's rule: single-field queries are always
// servable, but ordering combined with filters on other fields needs a
// composite index over the full field set.
func (q memQuery) checkIndex() error {
	if !q.store.strict || !q.ordered {
		return nil
	}
	fields := map[string]bool{q.orderField: true}
	for _, c := range q.conditions {
		fields[c.field] = true
	}
	if len(fields) == 1 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	if !q.store.indexes[indexKey(names)] {
		return fmt.Errorf("%w: no index over (%s)", ErrMissingIndex, indexKey(names))
	}
	return nil
}

func (q memQuery) matches(data map[string]any) bool {
	for _, c := range q.conditions {
		cmp := compareValues(data[c.field], c.value)
		switch c.op {
		case "==":
			if cmp != 0 {
				return false
			}
		case ">=":
			if cmp < 0 {
				return false
			}
		case "<=":
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders the value types the store holds: bools, numbers,
// strings, and timestamps. Mismatched or missing values sort first.
func compareValues(a, b any) int {
	switch bv := b.(type) {
	case bool:
		av, _ := a.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case string:
		av, _ := a.(string)
		return strings.Compare(av, bv)
	case time.Time:
		av, _ := a.(time.Time)
		switch {
		case av.Equal(bv):
			return 0
		case av.Before(bv):
			return -1
		default:
			return 1
		}
	case int, int32, int64, float32, float64:
		av := toFloat(a)
		bf := toFloat(bv)
		switch {
		case av == bf:
			return 0
		case av < bf:
			return -1
		default:
			return 1
		}
	}
	// b missing or unsupported: a sorts equal when also missing, after otherwise.
	if a == nil {
		return 0
	}
	return 1
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
