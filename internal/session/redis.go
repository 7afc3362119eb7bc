package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
)

// RedisStore backs the session state with Redis so multiple instances can
// serve the same cart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(cartID snowflake.ID, field string) string {
	return fmt.Sprintf("promosync:session:%d:%s", cartID, field)
}

func (s *RedisStore) LoyaltyNet(ctx context.Context, cartID snowflake.ID) (float64, bool, error) {
	val, err := s.client.Get(ctx, key(cartID, "loyalty_net")).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	points, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return points, true, nil
}

func (s *RedisStore) SetLoyaltyNet(ctx context.Context, cartID snowflake.ID, points float64) error {
	return s.client.Set(ctx, key(cartID, "loyalty_net"), strconv.FormatFloat(points, 'f', -1, 64), s.ttl).Err()
}

func (s *RedisStore) ClearLoyaltyNet(ctx context.Context, cartID snowflake.ID) error {
	return s.client.Del(ctx, key(cartID, "loyalty_net")).Err()
}

func (s *RedisStore) MarkFreeItemUnavailable(ctx context.Context, cartID snowflake.ID) error {
	return s.client.Set(ctx, key(cartID, "free_item_unavailable"), "1", s.ttl).Err()
}

func (s *RedisStore) ConsumeFreeItemUnavailable(ctx context.Context, cartID snowflake.ID) (bool, error) {
	_, err := s.client.GetDel(ctx, key(cartID, "free_item_unavailable")).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
