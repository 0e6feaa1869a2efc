// Package blocker implements the BlockerStore: an in-memory, mutex-guarded
// registry of pause points awaiting a human or asynchronous answer, with
// event-bus notification on raise/answer. Grounded on the
// connections/channels map-of-maps shape of pkg/events/manager.go's
// ConnectionManager and the list/filter/sort contract of
// pkg/services/session_service.go's query helpers.
package blocker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/conductor/pkg/domain"
)

// ErrNotFound is returned when a blocker id is not registered.
var ErrNotFound = fmt.Errorf("blocker: not found")


// Notifier receives raise/answer lifecycle notifications. Implementations
// typically fan these out over a websocket connection manager; a nil
// Notifier disables notification.
type Notifier interface {
	Publish(ctx context.Context, blockerID string, event string, detail map[string]any)
}

// Store is the BlockerStore.
type Store struct {
	mu       sync.RWMutex
	blockers map[string]*domain.Blocker
	notifier Notifier
}

// New constructs an empty Store. notifier may be nil.
func New(notifier Notifier) *Store {
	return &Store{
		blockers: make(map[string]*domain.Blocker),
		notifier: notifier,
	}
}

// Raise registers a new blocker, assigning it an ID and CreatedAt if unset,
// and notifies "blocker.raised".
func (s *Store) Raise(ctx context.Context, b *domain.Blocker) error {
	if b.Question == "" {
		return fmt.Errorf("blocker: question is required")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.blockers[b.ID] = b
	s.mu.Unlock()

	s.notify(ctx, b.ID, "blocker.raised", map[string]any{
		"kind":        b.Kind,
		"task_number": b.TaskNumber,
	})
	return nil
}

// Answer records an answer for blocker id and notifies "blocker.answered".
// Answering an already-answered blocker is idempotent: it returns the
// blocker as originally answered, with no error and no state change (the
// second call does not overwrite the first answer or re-notify).
func (s *Store) Answer(ctx context.Context, id, answer string) (*domain.Blocker, error) {
	s.mu.Lock()
	b, ok := s.blockers[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if b.IsAnswered() {
		s.mu.Unlock()
		return b, nil
	}
	b.Answer = &answer
	now := time.Now()
	b.AnsweredAt = &now
	s.mu.Unlock()

	s.notify(ctx, id, "blocker.answered", map[string]any{"answer": answer})
	return b, nil
}

// Get returns the blocker registered under id, or ErrNotFound.
func (s *Store) Get(id string) (*domain.Blocker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blockers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Filter narrows List results. Zero-value fields are treated as "don't
// filter on this dimension".
type Filter struct {
	ProjectID      string
	Kind           domain.BlockerKind
	UnansweredOnly bool
}

// List returns blockers matching filter, ordered oldest-first by
// CreatedAt (ties broken by ID for determinism).
func (s *Store) List(filter Filter) []*domain.Blocker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Blocker
	for _, b := range s.blockers {
		if filter.ProjectID != "" && b.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Kind != "" && b.Kind != filter.Kind {
			continue
		}
		if filter.UnansweredOnly && b.IsAnswered() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) notify(ctx context.Context, id, event string, detail map[string]any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, id, event, detail)
}
