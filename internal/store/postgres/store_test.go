package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cassidycr/accildatabase/internal/models"
)

// setupTestDB spins up a disposable Postgres and applies the schema
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := pgcontainer.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn)
	require.NoError(t, err, "Failed to create store")

	err = s.ApplyMigrations("../../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	cleanup := func() {
		require.NoError(t, s.Close())
		require.NoError(t, container.Terminate(ctx))
	}

	return s, cleanup
}

func TestPostgresSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	s, cleanup := setupTestDB(t)
	defer cleanup()

	session := &models.Session{
		First:        "Dana",
		Last:         "Reid",
		Email:        "dana.reid@example.edu",
		Date1:        "2024-03-10",
		Date2:        "2024-03-12",
		Type:         models.TypeInPerson,
		Campus:       "Highland",
		Librarian:    "Reid",
		CourseCode:   "ENGL",
		CourseNumber: "1301",
		SLOs:         []string{models.SLOEvaluateInfo, models.SLOResearchProcess},
	}

	id, err := s.CreateSession(session)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	t.Run("read back with tags", func(t *testing.T) {
		got, err := s.GetSession(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Dana", got.First)
		assert.ElementsMatch(t,
			[]string{models.SLOEvaluateInfo, models.SLOResearchProcess},
			got.SLOs,
		)
	})

	t.Run("confirm via partial update", func(t *testing.T) {
		err := s.UpdateSessionFields(id, map[string]any{
			"date_confirmed": "2024-03-10",
			"num_students":   30,
		})
		require.NoError(t, err)

		got, err := s.GetSession(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "2024-03-10", got.DateConfirmed)
		assert.Equal(t, 30, got.NumStudents)
	})

	t.Run("replace tag set", func(t *testing.T) {
		err := s.ReplaceSLOs(id, []string{models.SLOEthicalLegalUse})
		require.NoError(t, err)

		got, err := s.GetSession(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{models.SLOEthicalLegalUse}, got.SLOs)
	})

	t.Run("cancel", func(t *testing.T) {
		err := s.CancelSession(id, "Campus closure")
		require.NoError(t, err)

		got, err := s.GetSession(id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.Canceled)
		assert.Equal(t, "Campus closure", got.CanceledReason)
	})
}
