package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const defaultRedisPrefix = "newsnarrator"

// RedisStore keeps one hash of records per category plus a sorted set of first-insert times.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ ports.DocumentStore = (*RedisStore)(nil)

type redisDocument struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// OpenRedis accepts either a redis:// URL or a host:port address.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore wires a go-redis client; prefix namespaces every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Write upserts the record inside MULTI/EXEC; the order entry is only added once.
func (s *RedisStore) Write(ctx context.Context, record domain.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(redisDocument{Content: record.Content, Metadata: record.Metadata})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey(record.Category), record.ID, payload)
		pipe.ZAddNX(ctx, s.orderKey(record.Category), redis.Z{
			Score:  float64(s.now().UnixNano()),
			Member: record.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", record.Category, record.ID, err)
	}
	return nil
}

// ReadAll returns every record of the category in first-insert order.
func (s *RedisStore) ReadAll(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.orderKey(category), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", category, err)
	}
	if len(ids) == 0 {
		return []domain.Record{}, nil
	}

	values, err := s.client.HMGet(ctx, s.docsKey(category), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read docs %s: %w", category, err)
	}

	records := make([]domain.Record, 0, len(ids))
	for i, raw := range values {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		rec, err := decodeRedisDocument(category, ids[i], str)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count reports the number of records in the category.
func (s *RedisStore) Count(ctx context.Context, category domain.Category) (int, error) {
	if err := category.Validate(); err != nil {
		return 0, err
	}
	n, err := s.client.HLen(ctx, s.docsKey(category)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("count %s: %w", category, err)
	}
	return int(n), nil
}

func (s *RedisStore) docsKey(c domain.Category) string {
	return fmt.Sprintf("%s:%s:docs", s.prefix, c)
}

func (s *RedisStore) orderKey(c domain.Category) string {
	return fmt.Sprintf("%s:%s:order", s.prefix, c)
}

func decodeRedisDocument(category domain.Category, id, raw string) (domain.Record, error) {
	var doc redisDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return domain.Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	meta, err := domain.NormalizeMetadata(doc.Metadata)
	if err != nil {
		return domain.Record{}, fmt.Errorf("record %s: %w", id, err)
	}
	return domain.Record{Category: category, ID: id, Content: doc.Content, Metadata: meta}, nil
}
