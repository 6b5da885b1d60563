package session

import (
	"context"
	"testing"

	"github.com/ashureev/folio/internal/domain"
	"github.com/ashureev/folio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_SaveAndClear(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := New(store.Scoped(mem, "visitor-1"))

	assert.False(t, s.Authenticated(ctx))
	assert.Nil(t, s.User(ctx))

	require.NoError(t, s.Save(ctx, "tok", domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleAdmin}))
	assert.Equal(t, "tok", s.Token(ctx))
	assert.True(t, s.IsAdmin(ctx))
	u := s.User(ctx)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "a", u.Name)

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, "", s.Token(ctx))
	assert.Nil(t, s.User(ctx))
	assert.False(t, s.IsAdmin(ctx))
}

func TestSession_RejectsEmptyToken(t *testing.T) {
	s := New(store.Scoped(store.NewMemory(), "v"))
	assert.Error(t, s.Save(context.Background(), "", domain.User{}))
}

func TestSession_CorruptUserIgnored(t *testing.T) {
	ctx := context.Background()
	kv := store.Scoped(store.NewMemory(), "v")
	require.NoError(t, kv.Set(ctx, store.KeyUser, "{not json"))
	assert.Nil(t, New(kv).User(ctx))
}
