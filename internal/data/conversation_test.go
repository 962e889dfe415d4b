package data

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"
)

func newTestConversationRepo(t *testing.T) repo.ConversationRepo {
	t.Helper()
	r, err := NewConversationRepo("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestConversationRepo_LastOnEmptyScope(t *testing.T) {
	r := newTestConversationRepo(t)

	rec, err := r.Last(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestConversationRepo_AppendAndLast(t *testing.T) {
	ctx := context.Background()
	r := newTestConversationRepo(t)
	now := time.UnixMilli(time.Now().UnixMilli())

	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r1", CreatedAt: now}))
	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r2", CreatedAt: now}))
	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c2", ResponseID: "r3", CreatedAt: now}))

	last, err := r.Last(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "r2", last.ResponseID)
	assert.True(t, now.Equal(last.CreatedAt))

	n, err := r.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	history, err := r.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "r1", history[0].ResponseID)
	assert.Equal(t, "r2", history[1].ResponseID)
}

func TestConversationRepo_Reset(t *testing.T) {
	ctx := context.Background()
	r := newTestConversationRepo(t)

	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r1"}))
	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c2", ResponseID: "r2"}))

	removed, err := r.Reset(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	last, err := r.Last(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, last)

	last, err = r.Last(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "r2", last.ResponseID)
}

func TestConversationRepo_ListScopes(t *testing.T) {
	ctx := context.Background()
	r := newTestConversationRepo(t)

	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r1"}))
	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c2", ResponseID: "r2"}))
	require.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r3"}))

	scopes, err := r.ListScopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 2)

	assert.Equal(t, "c1", scopes[0].Scope)
	assert.Equal(t, 2, scopes[0].Turns)
	assert.Equal(t, "r3", scopes[0].LastResponseID)
	assert.Equal(t, "c2", scopes[1].Scope)
	assert.Equal(t, 1, scopes[1].Turns)
}

func TestConversationRepo_SeparateInstancesDoNotShare(t *testing.T) {
	ctx := context.Background()
	a := newTestConversationRepo(t)
	b := newTestConversationRepo(t)

	require.NoError(t, a.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r1"}))

	n, err := b.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationRepo_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	r := newTestConversationRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Append(ctx, &domain.ResponseRecord{Scope: "c1", ResponseID: "r"}))
		}()
	}
	wg.Wait()

	n, err := r.Count(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
