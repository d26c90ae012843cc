package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-bff/internal/domain"
	"github.com/kirinyoku/tix-bff/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestStore connects to TEST_POSTGRES_DSN or skips.
func getTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	require.NoError(t, s.Attempts().EnsureSchema(ctx))
	return s
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestTranslateDBErr(t *testing.T) {
	assert.ErrorIs(t, translateDBErr(&pgconn.PgError{Code: "23505"}), repository.ErrConflict)
	assert.Nil(t, translateDBErr(nil))
}

func TestAttemptRepo_Integration(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()
	sessionID := "it-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, outcome := range []string{"failed", "succeeded"} {
		require.NoError(t, s.Attempts().Insert(ctx, domain.Attempt{
			ID:           uuid.New(),
			SessionID:    sessionID,
			EventID:      "E1",
			TicketTypeID: "T1",
			Quantity:     2,
			Outcome:      outcome,
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := s.Attempts().ListBySession(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "succeeded", got[0].Outcome)
	assert.Equal(t, "failed", got[1].Outcome)

	dup := got[0]
	err = s.Attempts().Insert(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestStore_RunTxRollsBack(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()
	sessionID := "it-" + uuid.NewString()
	boom := errors.New("boom")

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		if err := s.Attempts().With(tx).Insert(ctx, domain.Attempt{
			ID: uuid.New(), SessionID: sessionID, EventID: "E1", TicketTypeID: "T1",
			Quantity: 1, Outcome: "failed", CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Attempts().ListBySession(ctx, sessionID, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
