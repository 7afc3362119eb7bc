package session

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLoyaltyNet(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()
	cartID := snowflake.ID(1002)

	_, ok, err := s.LoyaltyNet(ctx, cartID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLoyaltyNet(ctx, cartID, 42.5))
	points, ok, err := s.LoyaltyNet(ctx, cartID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42.5, points)

	// Zero is a valid stored balance, distinct from absent.
	require.NoError(t, s.SetLoyaltyNet(ctx, cartID, 0))
	points, ok, err = s.LoyaltyNet(ctx, cartID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, points)

	require.NoError(t, s.ClearLoyaltyNet(ctx, cartID))
	_, ok, err = s.LoyaltyNet(ctx, cartID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreFreeItemFlagReadOnce(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()
	ctx := context.Background()
	cartID := snowflake.ID(1003)

	got, err := s.ConsumeFreeItemUnavailable(ctx, cartID)
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, s.MarkFreeItemUnavailable(ctx, cartID))

	got, err = s.ConsumeFreeItemUnavailable(ctx, cartID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = s.ConsumeFreeItemUnavailable(ctx, cartID)
	require.NoError(t, err)
	assert.False(t, got, "flag must clear after one read")
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()
	cartID := snowflake.ID(1004)

	require.NoError(t, s.SetLoyaltyNet(ctx, cartID, 12))
	time.Sleep(25 * time.Millisecond)

	_, ok, err := s.LoyaltyNet(ctx, cartID)
	require.NoError(t, err)
	assert.False(t, ok)
}
