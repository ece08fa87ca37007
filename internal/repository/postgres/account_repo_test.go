package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-api/internal/domain/entity"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
)

func TestAccountRepo_CreateAndVerify(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	account := &entity.Account{Email: " Buyer@Example.com"}
	require.NoError(t, repo.Create(ctx, account))
	assert.Equal(t, "buyer@example.com", account.Email)

	err := repo.Create(ctx, &entity.Account{Email: "buyer@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	verified, err := repo.IsAccountVerified(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, verified)

	require.NoError(t, repo.SetVerified(ctx, "buyer@example.com", testNow))
	got, err := repo.GetByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	require.NotNil(t, got.EmailVerifiedAt)

	require.NoError(t, repo.ClearVerified(ctx, "buyer@example.com"))
	got, err = repo.GetByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.False(t, got.EmailVerified)
	assert.Nil(t, got.EmailVerifiedAt)
}

func TestAccountRepo_SetVerified_MissingAccountIsNoop(t *testing.T) {
	repo := NewAccountRepo(newTestDB(t))
	assert.NoError(t, repo.SetVerified(context.Background(), "guest@example.com", testNow))
}

func TestAccountRepo_ListFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, repo.Create(ctx, &entity.Account{Email: email}))
	}
	require.NoError(t, repo.SetVerified(ctx, "b@example.com", testNow))

	verified := true
	accounts, total, err := repo.List(ctx, &verified, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, accounts, 1)
	assert.Equal(t, "b@example.com", accounts[0].Email)

	unverified := false
	_, total, err = repo.List(ctx, &unverified, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	accounts, total, err = repo.List(ctx, nil, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, accounts, 2)
}

func TestAccountRepo_UpdateEmailAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepo(newTestDB(t))
	account := &entity.Account{Email: "old@example.com"}
	require.NoError(t, repo.Create(ctx, account))

	require.NoError(t, repo.UpdateEmail(ctx, "old@example.com", "new@example.com"))
	_, err := repo.GetByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	accounts, err := repo.GetByIDs(ctx, []uint{account.ID})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "new@example.com", accounts[0].Email)

	require.NoError(t, repo.Delete(ctx, "new@example.com"))
	assert.ErrorIs(t, repo.Delete(ctx, "new@example.com"), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateEmail(ctx, "missing@example.com", "x@example.com"), apperrors.ErrNotFound)
}
