package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// TimestampLayout is the ISO-8601 layout used for Feedback.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// DocumentStore persists the feedback document as a single value. Load returns an
// empty document when nothing has been stored yet. Replace swaps the whole
// document atomically: readers observe either the old or the new one.
type DocumentStore interface {
	Load(ctx context.Context) (Document, error)
	Replace(ctx context.Context, doc Document) error
	Close() error
}

// FeedbackStore owns the ordered feedback sequence. Appends are read-modify-write
// of the whole document, so they are serialised by mu; without it two concurrent
// appends would both read the same document and the last writer would drop the
// other's record.
type FeedbackStore struct {
	backend DocumentStore
	now     func() time.Time

	mu sync.Mutex
}

func NewFeedbackStore(backend DocumentStore) *FeedbackStore {
	return &FeedbackStore{
		backend: backend,
		now:     time.Now,
	}
}

func (s *FeedbackStore) Close() error {
	return s.backend.Close()
}

// Load returns every record in insertion order.
func (s *FeedbackStore) Load(ctx context.Context) ([]Feedback, error) {
	doc, err := s.backend.Load(ctx)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return normalizeDocument(doc).Feedback, nil
}

// Append assigns the next id and the current timestamp to record and persists it.
// The returned value is the record as stored.
func (s *FeedbackStore) Append(ctx context.Context, record Feedback) (Feedback, error) {
	stored, err := s.AppendMany(ctx, []Feedback{record})
	if err != nil {
		return Feedback{}, err
	}
	return stored[0], nil
}

// AppendMany appends records in order with a single replace of the document, so
// either all of them are persisted or none is.
func (s *FeedbackStore) AppendMany(ctx context.Context, records []Feedback) ([]Feedback, error) {
	if len(records) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.Load(ctx)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	doc = normalizeDocument(doc)

	timestamp := s.now().Format(TimestampLayout)
	next := doc.nextID()
	stored := make([]Feedback, 0, len(records))
	for _, r := range records {
		r.ID = strconv.Itoa(next)
		r.Timestamp = timestamp
		next++
		stored = append(stored, r)
	}

	updated := Document{
		NextID:   next,
		Feedback: append(append(make([]Feedback, 0, len(doc.Feedback)+len(stored)), doc.Feedback...), stored...),
	}
	if err := s.backend.Replace(ctx, updated); err != nil {
		return nil, &StorageError{Op: "replace", Err: err}
	}
	return stored, nil
}
