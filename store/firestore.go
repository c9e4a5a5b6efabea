// store/firestore.go
package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	matchesCollection      = "matches"
	participantsCollection = "participants"
)

// FirestoreStore backs Store with Cloud Firestore. Composite indexes for the
// filter+sort combinations the planner issues are provisioned out of band;
// until an index finishes building, Firestore rejects the query with
// FailedPrecondition, which this adapter translates to ErrMissingIndex.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to the project's Firestore database.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect firestore: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) Matches() Query {
	return fsQuery{store: s, q: s.client.Collection(matchesCollection).Query}
}

func (s *FirestoreStore) GetMatch(ctx context.Context, id string) (*Document, error) {
	snap, err := s.client.Collection(matchesCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Participants(ctx context.Context, matchID string) ([]Document, error) {
	iter := s.client.Collection(matchesCollection).Doc(matchID).
		Collection(participantsCollection).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) InsertMatch(ctx context.Context, data map[string]any) (string, error) {
	ref := s.client.Collection(matchesCollection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) InsertParticipant(ctx context.Context, matchID string, data map[string]any) (string, error) {
	ref := s.client.Collection(matchesCollection).Doc(matchID).
		Collection(participantsCollection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) UpdateMatch(ctx context.Context, id string, fields map[string]any) error {
	_, err := s.client.Collection(matchesCollection).Doc(id).Set(ctx, fields, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) UpdateParticipant(ctx context.Context, matchID, participantID string, fields map[string]any) error {
	_, err := s.client.Collection(matchesCollection).Doc(matchID).
		Collection(participantsCollection).Doc(participantID).
		Set(ctx, fields, firestore.MergeAll)
	return err
}

// DeleteMatch removes the match and every participant under it in one batch.
// Participant lists are bounded by lobby size, far under the 500-write batch
// ceiling.
func (s *FirestoreStore) DeleteMatch(ctx context.Context, id string) error {
	matchRef := s.client.Collection(matchesCollection).Doc(id)

	iter := matchRef.Collection(participantsCollection).Documents(ctx)
	defer iter.Stop()

	batch := s.client.Batch()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return err
		}
		batch.Delete(snap.Ref)
	}
	batch.Delete(matchRef)

	_, err := batch.Commit(ctx)
	return err
}

// fsQuery wraps firestore.Query. Value receivers keep the builder immutable.
type fsQuery struct {
	store    *FirestoreStore
	q        firestore.Query
	cursorID string
}

func (f fsQuery) Where(field, op string, value any) Query {
	f.q = f.q.Where(field, op, value)
	return f
}

func (f fsQuery) OrderBy(field string, dir Direction) Query {
	d := firestore.Asc
	if dir == Desc {
		d = firestore.Desc
	}
	f.q = f.q.OrderBy(field, d)
	return f
}

func (f fsQuery) StartAfter(docID string) Query {
	f.cursorID = docID
	return f
}

func (f fsQuery) Limit(n int) Query {
	f.q = f.q.Limit(n)
	return f
}

func (f fsQuery) Documents(ctx context.Context) ([]Document, error) {
	q := f.q
	if f.cursorID != "" {
		// Cursor anchoring needs the referenced document's snapshot.
		snap, err := f.store.client.Collection(matchesCollection).Doc(f.cursorID).Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve cursor %q: %w", f.cursorID, err)
		}
		q = q.StartAfter(snap)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if status.Code(err) == codes.FailedPrecondition {
				return nil, fmt.Errorf("%w: %v", ErrMissingIndex, err)
			}
			return nil, err
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}
