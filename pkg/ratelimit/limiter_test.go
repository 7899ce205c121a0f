package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpacing(t *testing.T) {
	l := New(10, time.Second)
	assert.Equal(t, 100*time.Millisecond, l.Spacing())
}

func TestAllowEnforcesSpacing(t *testing.T) {
	l := New(2, time.Second)

	assert.True(t, l.Allow())
	// Second request inside the spacing interval must be refused even
	// though the window budget has room.
	assert.False(t, l.Allow())
}

func TestAllowEnforcesWindowBudget(t *testing.T) {
	l := New(2, 10*time.Second)
	l.spacing = 0 // isolate the window budget

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestWaitGrantsAfterSpacing(t *testing.T) {
	l := New(20, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, l.Spacing())
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	l := New(1, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDefaultsClampInvalidInput(t *testing.T) {
	l := New(0, 0)
	assert.True(t, l.Allow())
}
