package blocker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskforge/conductor/pkg/blocker"
	"github.com/taskforge/conductor/pkg/domain"
)

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) Publish(ctx context.Context, blockerID, event string, detail map[string]any) {
	r.events = append(r.events, event)
}

func TestStore_RaiseAndAnswer(t *testing.T) {
	notifier := &recordingNotifier{}
	s := blocker.New(notifier)

	b := &domain.Blocker{Kind: domain.BlockerSync, Question: "which framework?", ProjectID: "p1"}
	require.NoError(t, s.Raise(context.Background(), b))
	require.NotEmpty(t, b.ID)

	got, err := s.Get(b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAnswered())

	answered, err := s.Answer(context.Background(), b.ID, "use pytest")
	require.NoError(t, err)
	assert.True(t, answered.IsAnswered())

	// Answering an already-answered blocker is idempotent: no error, no
	// state change, and no second notification.
	again, err := s.Answer(context.Background(), b.ID, "again")
	require.NoError(t, err)
	require.NotNil(t, again.Answer)
	assert.Equal(t, "use pytest", *again.Answer)

	assert.Equal(t, []string{"blocker.raised", "blocker.answered"}, notifier.events)
}

func TestStore_RaiseRequiresQuestion(t *testing.T) {
	s := blocker.New(nil)
	err := s.Raise(context.Background(), &domain.Blocker{})
	assert.Error(t, err)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := blocker.New(nil)
	_, err := s.Get("missing")
	assert.ErrorIs(t, err, blocker.ErrNotFound)
}

func TestStore_List_FiltersAndOrders(t *testing.T) {
	s := blocker.New(nil)
	ctx := context.Background()
	b1 := &domain.Blocker{Kind: domain.BlockerSync, Question: "q1", ProjectID: "p1"}
	b2 := &domain.Blocker{Kind: domain.BlockerAsync, Question: "q2", ProjectID: "p1"}
	b3 := &domain.Blocker{Kind: domain.BlockerSync, Question: "q3", ProjectID: "p2"}
	require.NoError(t, s.Raise(ctx, b1))
	require.NoError(t, s.Raise(ctx, b2))
	require.NoError(t, s.Raise(ctx, b3))

	_, err := s.Answer(ctx, b1.ID, "answered")
	require.NoError(t, err)

	p1 := s.List(blocker.Filter{ProjectID: "p1"})
	require.Len(t, p1, 2)

	unanswered := s.List(blocker.Filter{ProjectID: "p1", UnansweredOnly: true})
	require.Len(t, unanswered, 1)
	assert.Equal(t, "q2", unanswered[0].Question)

	syncOnly := s.List(blocker.Filter{Kind: domain.BlockerSync})
	require.Len(t, syncOnly, 2)
}
