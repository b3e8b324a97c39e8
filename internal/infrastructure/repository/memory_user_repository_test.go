package repository

import (
	"context"
	"testing"

	"user-service/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_SaveAssignsIDs(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	a := user.NewUser("Ann", "ann@x.com", nil)
	b := user.NewUser("Bob", "bob@x.com", nil)
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	assert.EqualValues(t, 1, a.ID)
	assert.EqualValues(t, 2, b.ID)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, user.NewUser("Ann", "ann@x.com", nil)))

	err := repo.Save(ctx, user.NewUser("Other", "ann@x.com", nil))
	assert.ErrorIs(t, err, user.ErrDuplicateKey)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryUserRepository_UpdateKeepsOwnEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := user.NewUser("Ann", "ann@x.com", nil)
	require.NoError(t, repo.Save(ctx, u))

	u.Name = "Anna"
	require.NoError(t, repo.Save(ctx, u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
}

func TestMemoryUserRepository_UpdateMissing(t *testing.T) {
	repo := NewMemoryUserRepository()

	u := user.NewUser("Ghost", "ghost@x.com", nil)
	u.ID = 42
	assert.Error(t, repo.Save(context.Background(), u))
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := user.NewUser("Ann", "ann@x.com", nil)
	require.NoError(t, repo.Save(ctx, u))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Name)
}

func TestMemoryUserRepository_Lookups(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, user.NewUser("John Smith", "john@x.com", nil)))
	require.NoError(t, repo.Save(ctx, user.NewUser("Ann", "ann@x.com", nil)))

	missing, err := repo.FindByID(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byEmail, err := repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "Ann", byEmail.Name)

	exists, err := repo.ExistsByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.FindByNameContaining(ctx, "SMITH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "John Smith", found[0].Name)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Less(t, all[0].ID, all[1].ID)
}

func TestMemoryUserRepository_DeleteByID(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := user.NewUser("Ann", "ann@x.com", nil)
	require.NoError(t, repo.Save(ctx, u))

	require.NoError(t, repo.DeleteByID(ctx, u.ID))
	require.NoError(t, repo.DeleteByID(ctx, u.ID))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the email is free again
	assert.NoError(t, repo.Save(ctx, user.NewUser("Ann", "ann@x.com", nil)))
}
