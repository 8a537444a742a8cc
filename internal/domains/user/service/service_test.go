package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/user/model"
	"feature-voting-backend/internal/infrastructure/cache"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/internal/testutil"
)

func newService(t *testing.T) (ServiceInterface, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	return NewUserService(store.Users(), nil), store
}

func TestCreateUser(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.CreateUser(context.Background(), model.CreateUserRequest{Username: " alice ", Email: "Alice@Example.com"})
	require.NoError(t, err)
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateUser(context.Background(), model.CreateUserRequest{Username: "a", Email: "not-an-email"})
	require.Error(t, err)

	appErr := apperror.As(err)
	assert.Equal(t, apperror.Validation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "username")
	assert.Contains(t, appErr.Fields, "email")
}

func TestCreateUser_Duplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, model.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, model.CreateUserRequest{Username: "alice", Email: "other@example.com"})
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, apperror.Validation, appErr.Kind)
	assert.Equal(t, "Username already exists", appErr.Fields["username"])

	_, err = svc.CreateUser(ctx, model.CreateUserRequest{Username: "bob", Email: "alice@example.com"})
	require.Error(t, err)
	appErr = apperror.As(err)
	assert.Equal(t, apperror.Validation, appErr.Kind)
	assert.Equal(t, "Email already registered", appErr.Fields["email"])
}

func TestGetUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, model.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	_, err = svc.GetUser(ctx, 99)
	assert.True(t, apperror.IsKind(err, apperror.UserNotFound))

	exists, err := svc.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob", "carol"} {
		_, err := svc.CreateUser(ctx, model.CreateUserRequest{Username: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx, pagination.Window{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	_, err = svc.ListUsers(ctx, pagination.Window{Skip: 0, Limit: 5000})
	assert.True(t, apperror.IsKind(err, apperror.Validation))
}

func TestDeleteUser_AdjustsCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Close() })

	store := testutil.NewMemStore()
	svc := NewUserService(store.Users(), cache.NewRedisCache(client))
	ctx := context.Background()

	alice, err := svc.CreateUser(ctx, model.CreateUserRequest{Username: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, model.CreateUserRequest{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	aliceFeature := &featuremodel.Feature{Title: "Dark mode", Description: "A description long enough", AuthorID: alice.ID}
	bobFeature := &featuremodel.Feature{Title: "Export", Description: "A description long enough", AuthorID: bob.ID}
	require.NoError(t, store.Features().Create(ctx, aliceFeature))
	require.NoError(t, store.Features().Create(ctx, bobFeature))

	for _, v := range [][2]int64{{alice.ID, bobFeature.ID}, {bob.ID, bobFeature.ID}, {bob.ID, aliceFeature.ID}} {
		_, err := store.Ledger().Cast(ctx, v[0], v[1])
		require.NoError(t, err)
	}

	key := featuremodel.CacheKey(bobFeature.ID)
	require.NoError(t, mr.Set(key, `{}`))
	mr.SetTTL(key, time.Minute)

	require.NoError(t, svc.DeleteUser(ctx, alice.ID))

	// alice's feature cascades away with bob's vote; bob's feature loses alice's vote
	_, err = store.Features().FindByID(ctx, aliceFeature.ID)
	assert.ErrorIs(t, err, featuremodel.ErrFeatureNotFound)

	remaining, err := store.Features().FindByID(ctx, bobFeature.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining.VoteCount)
	require.NoError(t, store.CheckInvariant())
	assert.False(t, mr.Exists(key))

	err = svc.DeleteUser(ctx, alice.ID)
	assert.True(t, apperror.IsKind(err, apperror.UserNotFound))
}
