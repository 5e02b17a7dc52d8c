package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/osintrat/internal/backend"
)

func TestRegistry_RefreshKeepsSnapshotOnError(t *testing.T) {
	b := newFakeBackend(map[string]*fakeIndex{"a": {}, "b": {}})
	hookCalls := 0
	reg := NewRegistry(b, WithRefreshHook(func() { hookCalls++ }))
	ctx := context.Background()

	assert.Empty(t, reg.Names())
	require.NoError(t, reg.Refresh(ctx))
	assert.ElementsMatch(t, []string{"a", "b"}, reg.Names())
	assert.NoError(t, reg.Err())
	assert.False(t, reg.RefreshedAt().IsZero())
	assert.Equal(t, 1, hookCalls)

	b.listErr = errors.New("down")
	assert.Error(t, reg.Refresh(ctx))
	assert.ElementsMatch(t, []string{"a", "b"}, reg.Names())
	assert.Error(t, reg.Err())
	assert.Equal(t, 1, hookCalls)

	b.listErr = nil
	b.indexes["c"] = &fakeIndex{hits: []backend.Hit{}}
	require.NoError(t, reg.Refresh(ctx))
	assert.Len(t, reg.Names(), 3)
	assert.NoError(t, reg.Err())
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	b := newFakeBackend(map[string]*fakeIndex{"a": {}})
	reg := NewRegistry(b)
	require.NoError(t, reg.Refresh(context.Background()))
	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, reg.Names())
}
