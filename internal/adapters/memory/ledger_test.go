package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/syncfiles/internal/domain"
)

func names(entries []domain.LedgerEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Filename)
	}
	return out
}

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := l.Create(ctx, "a.json", base)
	require.NoError(t, err)
	_, err = l.Create(ctx, "b.json", base.Add(time.Second))
	require.NoError(t, err)

	_, err = l.Create(ctx, "a.json", base)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	pending, err := l.ListPending(ctx, domain.NewestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.json", "a.json"}, names(pending))

	e, err := l.Get(ctx, "a.json")
	require.NoError(t, err)
	e.MarkSent(base.Add(time.Minute))
	require.NoError(t, l.Update(ctx, e))

	pending, err = l.ListPending(ctx, domain.OldestFirst)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.json"}, names(pending))

	sent, err := l.ListSent(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json"}, names(sent))

	assert.Error(t, l.Approve(ctx, []string{"a.json", "b.json"}, "C1"))
	got, err := l.Get(ctx, "a.json")
	require.NoError(t, err)
	assert.Nil(t, got.ApprovalCode)

	require.NoError(t, l.Approve(ctx, []string{"a.json"}, "C1"))
	awaiting, err := l.ListAwaitingConfirmation(ctx)
	require.NoError(t, err)
	assert.Empty(t, awaiting)

	_, err = l.Get(ctx, "ghost.json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLedgerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	_, err := l.Create(ctx, "a.json", time.Now())
	require.NoError(t, err)

	e, err := l.Get(ctx, "a.json")
	require.NoError(t, err)
	e.MarkSent(time.Now())

	again, err := l.Get(ctx, "a.json")
	require.NoError(t, err)
	assert.False(t, again.Sent, "mutating a fetched entry must not write through")
}
