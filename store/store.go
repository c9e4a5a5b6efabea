// store/store.go
package store

import (
	"context"
	"errors"
)

// The match data lives in a document store: one collection of match documents,
// each owning a participant subcollection. This package is the boundary; the
// planner and loaders above it only ever see Query, Document, and the
// missing-index sentinel.

// ErrMissingIndex signals that the store could not serve a filter+sort
// combination because the required composite index does not exist (or is
// still building). The planner treats it as a cue to fall back to an
// unordered query, never as a caller-visible failure.
var ErrMissingIndex = errors.New("store: missing composite index")

// IsMissingIndex reports whether err is the missing-index signal.
func IsMissingIndex(err error) bool {
	return errors.Is(err, ErrMissingIndex)
}

// Direction orders a query on one field.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Document is one raw stored record: an opaque id plus an untyped field map.
// Typed access goes through models.ConvertMatchDoc / ConvertParticipantDoc.
type Document struct {
	ID   string
	Data map[string]any
}

// Query builds a filtered, ordered, limited read over the match collection.
// Builders return derived queries; the receiver is never mutated, so partial
// queries can be shared.
type Query interface {
	// Where adds a field filter. Supported operators: "==", ">=", "<=".
	Where(field, op string, value any) Query
	// OrderBy sorts results by a single field.
	OrderBy(field string, dir Direction) Query
	// StartAfter resumes results just after the document with the given id.
	StartAfter(docID string) Query
	// Limit caps the number of returned documents.
	Limit(n int) Query
	// Documents executes the query. Returns ErrMissingIndex (wrapped) when
	// the store cannot serve the filter+sort combination.
	Documents(ctx context.Context) ([]Document, error)
}

// Store is the document-store surface the service consumes.
type Store interface {
	// Matches starts a query over the match collection.
	Matches() Query

	// GetMatch fetches one match document. Missing documents return
	// (nil, nil), not an error.
	GetMatch(ctx context.Context, id string) (*Document, error)

	// Participants fetches the participant subcollection of one match, in
	// storage order.
	Participants(ctx context.Context, matchID string) ([]Document, error)

	// InsertMatch stores a new match document and returns its assigned id.
	InsertMatch(ctx context.Context, data map[string]any) (string, error)

	// InsertParticipant stores a participant under the given match.
	InsertParticipant(ctx context.Context, matchID string, data map[string]any) (string, error)

	// UpdateMatch merges fields into an existing match document.
	UpdateMatch(ctx context.Context, id string, fields map[string]any) error

	// UpdateParticipant merges fields into one participant document.
	UpdateParticipant(ctx context.Context, matchID, participantID string, fields map[string]any) error

	// DeleteMatch removes a match document and its entire participant
	// subcollection. Participants never outlive their match.
	DeleteMatch(ctx context.Context, id string) error
}
