package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"StockOracle/internal/domain/models"
	"StockOracle/pkg/util"

	"github.com/redis/go-redis/v9"
)

// RedisAlertStore keeps one JSON alert record per ticker under
// <prefix>:alert:<TICKER>. Records do not expire.
type RedisAlertStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisAlertStore(client redis.UniversalClient, prefix string) *RedisAlertStore {
	return &RedisAlertStore{client: client, prefix: prefix}
}

func (s *RedisAlertStore) Get(ctx context.Context, ticker string) (*models.AlertConfig, error) {
	raw, err := s.client.Get(ctx, s.key(ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get alert: %w", err)
	}

	var cfg models.AlertConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	return &cfg, nil
}

func (s *RedisAlertStore) Save(ctx context.Context, cfg models.AlertConfig) error {
	cfg.Ticker = util.NormalizeTicker(cfg.Ticker)
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cfg.Ticker), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set alert: %w", err)
	}
	return nil
}

// Delete is idempotent.
func (s *RedisAlertStore) Delete(ctx context.Context, ticker string) error {
	if err := s.client.Del(ctx, s.key(ticker)).Err(); err != nil {
		return fmt.Errorf("redis delete alert: %w", err)
	}
	return nil
}

func (s *RedisAlertStore) key(ticker string) string {
	k := "alert:" + util.NormalizeTicker(ticker)
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}
