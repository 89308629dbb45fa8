package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/mobaserver/internal/model"
	"github.com/mcoot/mobaserver/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Registration operations

func (s *Storage) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, registrationKey(reg.ConnectionID), data, s.cfg.RegistrationTTL).Err()
}

func (s *Storage) GetRegistration(ctx context.Context, id model.ConnectionID) (*model.Registration, error) {
	data, err := s.client.Get(ctx, registrationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}

	var reg model.Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *Storage) DeleteRegistration(ctx context.Context, id model.ConnectionID) error {
	return s.client.Del(ctx, registrationKey(id)).Err()
}

// Match history operations

func (s *Storage) SaveMatchSummary(ctx context.Context, summary *model.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, summaryKey(summary.MatchID), data, s.cfg.SummaryTTL)
	pipe.ZAdd(ctx, summaryIndexKey(), redis.Z{
		Score:  float64(summary.EndTime.UnixMilli()),
		Member: string(summary.MatchID),
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMatchSummaries(ctx context.Context, limit int) ([]*model.MatchSummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, summaryIndexKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.MatchSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = summaryKey(model.MatchID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*model.MatchSummary, 0, len(values))
	var expired []any
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// Summary expired but its index entry remains
			expired = append(expired, ids[i])
			continue
		}
		var summary model.MatchSummary
		if err := json.Unmarshal([]byte(str), &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, &summary)
	}

	if len(expired) > 0 {
		if err := s.client.ZRem(ctx, summaryIndexKey(), expired...).Err(); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}
