package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goalkeeper/internal/store"
)

func TestTgUserStore_GetOrCreate(t *testing.T) {
	db := newTestDB(t)
	s := NewTgUserStore(db, DialectSQLite)
	ctx := context.Background()

	u, err := s.GetOrCreate(ctx, 42, 1001, "neo")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ChatID)
	assert.Equal(t, int64(1001), u.TgUserID)
	assert.Equal(t, "neo", u.Username)
	assert.False(t, u.IsLinked())
	assert.Empty(t, u.VerificationCode)

	require.NoError(t, s.SetVerificationCode(ctx, 42, "ABC123"))

	again, err := s.GetOrCreate(ctx, 42, 1001, "neo")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", again.VerificationCode, "second contact must not reset the record")
}

func TestTgUserStore_VerificationCodes(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewTgUserStore(db, DialectSQLite)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, 1, 0, "")
	require.NoError(t, err)
	_, err = s.GetOrCreate(ctx, 2, 0, "")
	require.NoError(t, err)

	require.NoError(t, s.SetVerificationCode(ctx, 1, "FIRST"))
	require.NoError(t, s.SetVerificationCode(ctx, 1, "SECOND"))

	_, err = s.GetByVerificationCode(ctx, "FIRST")
	require.ErrorIs(t, err, store.ErrNotFound, "overwritten code must stop working")

	err = s.SetVerificationCode(ctx, 2, "SECOND")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.SetVerificationCode(ctx, 99, "GHOST")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetByVerificationCode(ctx, "SECOND")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ChatID)

	account := f.user("alice")
	require.NoError(t, s.Link(ctx, 1, account))

	linked, err := s.GetOrCreate(ctx, 1, 0, "")
	require.NoError(t, err)
	require.True(t, linked.IsLinked())
	assert.Equal(t, account, *linked.UserID)
	assert.Empty(t, linked.VerificationCode)

	_, err = s.GetByVerificationCode(ctx, "SECOND")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserStore_GetByUsername(t *testing.T) {
	db := newTestDB(t)
	f := fixture{t: t, db: db}
	s := NewUserStore(db, DialectSQLite)
	ctx := context.Background()

	id := f.user("alice")

	u, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = s.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}
