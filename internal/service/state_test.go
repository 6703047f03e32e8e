package service

import (
	"context"
	"testing"
	"time"

	"lavka/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateService(t *testing.T) {
	logger := zerolog.Nop()
	repo := repository.NewMemoryStateRepository(time.Hour)
	svc := NewStateService(repo, &logger)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		err := svc.SetUserState(ctx, 100, "order_note", map[string]interface{}{"total": 35.0})
		require.NoError(t, err)

		state, err := svc.GetUserState(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, "order_note", state.CurrentStep)
		assert.Equal(t, 35.0, state.GetFloat64("total"))
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, svc.SetUserState(ctx, 200, "x", nil))
		require.NoError(t, svc.ClearUserState(ctx, 200))

		state, err := svc.GetUserState(ctx, 200)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("RateLimit", func(t *testing.T) {
		allowed, err := svc.CheckRateLimit(ctx, 300, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.CheckRateLimit(ctx, 300, 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}
