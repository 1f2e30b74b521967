package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
)

func TestUserService_Register(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	u := env.register(t, "alice", false)
	assert.NotEmpty(t, u.ID)

	shelves, err := env.store.ListShelves(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, shelves, 3)
	for i, status := range domain.DefaultStatusShelves() {
		assert.Equal(t, status.Slug, shelves[i].Slug)
		assert.Equal(t, domain.CollectionReadingStatus, shelves[i].CollectionType)
		assert.Equal(t, domain.ReadingStatusGroup, shelves[i].ExclusiveGroup)
	}

	_, err = env.users.Register(ctx, RegisterUserRequest{Username: "alice", DisplayName: "Other"})
	assert.Equal(t, domainerrors.CodeConflict, domainerrors.CodeOf(err))

	_, err = env.users.Register(ctx, RegisterUserRequest{Username: "Not Valid", DisplayName: "x"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestUserService_Follow(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	alice := env.register(t, "alice", false)
	bob := env.register(t, "bob", true)

	f, err := env.users.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.FollowPending, f.Status)

	f, err = env.users.Follow(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.FollowAccepted, f.Status, "public profiles accept immediately")

	f, err = env.users.AcceptFollower(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.FollowAccepted, f.Status)

	f, err = env.users.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.FollowAccepted, f.Status, "re-following keeps an accepted edge")

	_, err = env.users.Follow(ctx, alice.ID, "alice")
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = env.users.AcceptFollower(ctx, alice.ID, "bob")
	require.NoError(t, err, "bob follows alice already")

	_, err = env.users.AcceptFollower(ctx, bob.ID, "nobody")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	require.NoError(t, env.users.Unfollow(ctx, alice.ID, "bob"))
	_, err = env.store.GetFollow(ctx, alice.ID, bob.ID)
	assert.Error(t, err)
}

func TestUserService_Block(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	alice := env.register(t, "alice", false)
	bob := env.register(t, "bob", false)

	_, err := env.users.Follow(ctx, bob.ID, "alice")
	require.NoError(t, err)

	require.NoError(t, env.users.Block(ctx, alice.ID, "bob"))
	require.NoError(t, env.users.Block(ctx, alice.ID, "bob"), "blocking twice is a no-op")

	_, err = env.store.GetFollow(ctx, bob.ID, alice.ID)
	assert.Error(t, err, "block drops existing follows")

	_, err = env.users.Follow(ctx, bob.ID, "alice")
	assert.Equal(t, domainerrors.CodeForbidden, domainerrors.CodeOf(err))

	err = env.users.Block(ctx, alice.ID, "alice")
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	require.NoError(t, env.users.Unblock(ctx, alice.ID, "bob"))
	err = env.users.Unblock(ctx, alice.ID, "bob")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestUserService_SetPrivacy(t *testing.T) {
	env := setupTestServices(t)
	ctx := context.Background()

	alice := env.register(t, "alice", false)
	u, err := env.users.SetPrivacy(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsPrivate)

	_, err = env.users.SetPrivacy(ctx, "user-missing", true)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}
