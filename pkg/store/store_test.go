package store_test

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taskforge/conductor/ent"
	"github.com/taskforge/conductor/pkg/domain"
	"github.com/taskforge/conductor/pkg/store"
)

// newTestStore spins up a disposable Postgres testcontainer, auto-migrates
// the ent schema directly (skipping golang-migrate's versioned SQL files,
// which only matter for production upgrades), and returns a ready Store,
// adapted from the teacher's test/database.NewTestClient.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("conductor_test"),
		postgres.WithUsername("conductor"),
		postgres.WithPassword("conductor"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(pgContainer)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := entsql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	entClient := ent.NewClient(ent.Driver(drv))
	require.NoError(t, entClient.Schema.Create(ctx))

	s := store.NewFromEnt(entClient, drv.DB())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_ProjectLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseDiscovery, p.Phase)

	got, err := s.GetProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Equal(t, "proj-1", got.ID)

	moved, err := s.TransitionProject(ctx, "proj-1", domain.PhasePlanning)
	require.NoError(t, err)
	require.Equal(t, domain.PhasePlanning, moved.Phase)

	_, err = s.TransitionProject(ctx, "proj-1", domain.PhaseComplete)
	require.Error(t, err)
}

func TestStore_TaskAndDependencyLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, "proj-2")
	require.NoError(t, err)

	iss, err := s.CreateIssue(ctx, domain.Issue{ProjectID: "proj-2", IssueNumber: "1", Title: "Auth"})
	require.NoError(t, err)
	_ = iss

	issRow, err := s.GetIssue(ctx, "proj-2", "1")
	require.NoError(t, err)
	require.Equal(t, "Auth", issRow.Title)

	rows, err := s.ListIssuesByProject(ctx, "proj-2")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestStore_BlockerRaiseAndAnswer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, "proj-3")
	require.NoError(t, err)

	b, err := s.CreateBlocker(ctx, domain.Blocker{
		ID:        "blk-1",
		ProjectID: "proj-3",
		Kind:      domain.BlockerSync,
		Question:  "Which auth provider?",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.False(t, b.IsAnswered())

	answered, err := s.AnswerBlocker(ctx, "blk-1", "oauth2")
	require.NoError(t, err)
	require.True(t, answered.IsAnswered())

	list, err := s.ListBlockersByProject(ctx, "proj-3", true)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStore_MemoryUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, "proj-4")
	require.NoError(t, err)

	require.NoError(t, s.UpsertMemory(ctx, "proj-4", "architecture", "database", "postgres"))
	require.NoError(t, s.UpsertMemory(ctx, "proj-4", "architecture", "database", "postgres+ent"))

	got, err := s.GetMemoriesByCategory(ctx, "proj-4", "architecture")
	require.NoError(t, err)
	require.Equal(t, "postgres+ent", got["database"])

	require.NoError(t, s.DeleteMemoriesByCategory(ctx, "proj-4", "architecture"))
	got, err = s.GetMemoriesByCategory(ctx, "proj-4", "architecture")
	require.NoError(t, err)
	require.Empty(t, got)
}
