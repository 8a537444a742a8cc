package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	featurerepo "feature-voting-backend/internal/domains/feature/repository"
	usermodel "feature-voting-backend/internal/domains/user/model"
	userrepo "feature-voting-backend/internal/domains/user/repository"
	"feature-voting-backend/internal/domains/vote/model"
	"feature-voting-backend/internal/domains/vote/repository"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/testutil"
)

type pgFixture struct {
	db       *database.PostgresDB
	users    userrepo.Repository
	features featurerepo.Repository
	ledger   repository.Ledger
}

func setup(t *testing.T) *pgFixture {
	db := testutil.SetupPostgres(t)
	return &pgFixture{
		db:       db,
		users:    userrepo.NewPostgresRepository(db),
		features: featurerepo.NewPostgresRepository(db),
		ledger:   repository.NewPostgresLedger(db),
	}
}

func (f *pgFixture) user(t *testing.T, name string) int64 {
	t.Helper()
	u := &usermodel.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func (f *pgFixture) feature(t *testing.T, author int64) int64 {
	t.Helper()
	feat := &featuremodel.Feature{Title: "Dark mode", Description: "A description long enough", AuthorID: author}
	require.NoError(t, f.features.Create(context.Background(), feat))
	return feat.ID
}

func (f *pgFixture) assertConsistent(t *testing.T, featureID int64) {
	t.Helper()
	var counter, rows int
	require.NoError(t, f.db.Pool.QueryRow(context.Background(), `
		SELECT f.vote_count, (SELECT COUNT(*) FROM votes v WHERE v.feature_id = f.id)
		FROM features f WHERE f.id = $1
	`, featureID).Scan(&counter, &rows))
	assert.Equal(t, rows, counter)
}

func TestLedger_CastAndRetract(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	feat := f.feature(t, alice)

	res, err := f.ledger.Cast(ctx, alice, feat)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VoteCount)
	assert.Positive(t, res.Vote.ID)

	_, err = f.ledger.Cast(ctx, alice, feat)
	assert.ErrorIs(t, err, model.ErrAlreadyVoted)

	_, err = f.ledger.Cast(ctx, alice, feat+100)
	assert.ErrorIs(t, err, model.ErrFeatureNotFound)

	_, err = f.ledger.Cast(ctx, alice+100, feat)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = f.ledger.Cast(ctx, alice+100, feat+100)
	assert.ErrorIs(t, err, model.ErrFeatureNotFound)

	res, err = f.ledger.Retract(ctx, alice, feat)
	require.NoError(t, err)
	assert.Equal(t, 0, res.VoteCount)

	_, err = f.ledger.Retract(ctx, alice, feat)
	assert.ErrorIs(t, err, model.ErrVoteNotFound)

	f.assertConsistent(t, feat)
}

func TestLedger_ConcurrentCastSamePair(t *testing.T) {
	f := setup(t)
	alice := f.user(t, "alice")
	feat := f.feature(t, alice)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Cast(context.Background(), alice, feat)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		c, isViolation := database.AsConstraintViolation(err)
		duplicate := errors.Is(err, model.ErrAlreadyVoted) || (isViolation && c == database.UniqueUserFeatureVote)
		assert.True(t, duplicate, "unexpected error: %v", err)
	}
	f.assertConsistent(t, feat)
}

func TestLedger_ConcurrentMixedTraffic(t *testing.T) {
	f := setup(t)
	author := f.user(t, "author")
	feat := f.feature(t, author)

	voters := make([]int64, 12)
	for i := range voters {
		voters[i] = f.user(t, fmt.Sprintf("voter%d", i))
	}

	var wg sync.WaitGroup
	for round := 0; round < 3; round++ {
		for _, id := range voters {
			wg.Add(2)
			go func(userID int64) {
				defer wg.Done()
				_, _ = f.ledger.Cast(context.Background(), userID, feat)
			}(id)
			go func(userID int64) {
				defer wg.Done()
				_, _ = f.ledger.Retract(context.Background(), userID, feat)
			}(id)
		}
	}
	wg.Wait()

	f.assertConsistent(t, feat)
}

func TestLedger_RecountRepairsDrift(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	feat := f.feature(t, alice)

	_, err := f.ledger.Cast(ctx, alice, feat)
	require.NoError(t, err)
	_, err = f.db.Pool.Exec(ctx, `UPDATE features SET vote_count = 40 WHERE id = $1`, feat)
	require.NoError(t, err)

	recount, err := f.ledger.Recount(ctx, feat)
	require.NoError(t, err)
	assert.Equal(t, 40, recount.Previous)
	assert.Equal(t, 1, recount.VoteCount)
	f.assertConsistent(t, feat)
}

func TestUserDelete_KeepsCountersConsistent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	bobFeature := f.feature(t, bob)
	aliceFeature := f.feature(t, alice)

	for _, pair := range [][2]int64{{alice, bobFeature}, {bob, bobFeature}, {bob, aliceFeature}} {
		_, err := f.ledger.Cast(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	require.NoError(t, f.users.Delete(ctx, alice))

	remaining, err := f.features.FindByID(ctx, bobFeature)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining.VoteCount)
	f.assertConsistent(t, bobFeature)

	_, err = f.features.FindByID(ctx, aliceFeature)
	assert.ErrorIs(t, err, featuremodel.ErrFeatureNotFound)
}
