package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/mediassist/internal/booking"
)

const (
	bookingHistoryKey = "bookingHistory"
	adminPhoneKey     = "adminPhone"
	autoSendKey       = "autoSend"
)

// RedisStore keeps state under prefixed keys without expiry.
type RedisStore struct {
	redis  *redis.Client
	prefix string
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client, prefix string, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("persistence: redis client cannot be nil")
	}
	if prefix == "" {
		prefix = "mediassist"
	}
	if tracer == nil {
		tracer = otel.Tracer("mediassist.internal.persistence.redis")
	}
	return &RedisStore{redis: client, prefix: prefix, tracer: tracer}
}

func (s *RedisStore) LoadLedger(ctx context.Context) ([]booking.Record, error) {
	ctx, span := s.tracer.Start(ctx, "persistence.redis.load_ledger")
	defer span.End()

	data, err := s.redis.Get(ctx, s.key(bookingHistoryKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []booking.Record{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("persistence: load ledger: %w", err)
	}

	var records []booking.Record
	if err := json.Unmarshal(data, &records); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persistence: decode ledger: %w", err)
	}
	return records, nil
}

func (s *RedisStore) SaveLedger(ctx context.Context, records []booking.Record) error {
	ctx, span := s.tracer.Start(ctx, "persistence.redis.save_ledger")
	defer span.End()

	if records == nil {
		records = []booking.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: encode ledger: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(bookingHistoryKey), data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: save ledger: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearLedger(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "persistence.redis.clear_ledger")
	defer span.End()

	if err := s.redis.Del(ctx, s.key(bookingHistoryKey)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: clear ledger: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadSettings(ctx context.Context) (Settings, error) {
	ctx, span := s.tracer.Start(ctx, "persistence.redis.load_settings")
	defer span.End()

	values, err := s.redis.MGet(ctx, s.key(adminPhoneKey), s.key(autoSendKey)).Result()
	if err != nil {
		span.RecordError(err)
		return Settings{}, fmt.Errorf("persistence: load settings: %w", err)
	}
	if values[0] == nil && values[1] == nil {
		return Settings{}, ErrNotFound
	}

	var settings Settings
	if phone, ok := values[0].(string); ok {
		settings.AdminPhone = phone
	}
	if raw, ok := values[1].(string); ok {
		settings.AutoSend, _ = strconv.ParseBool(raw)
	}
	return settings, nil
}

func (s *RedisStore) SaveSettings(ctx context.Context, settings Settings) error {
	ctx, span := s.tracer.Start(ctx, "persistence.redis.save_settings")
	defer span.End()

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(adminPhoneKey), settings.AdminPhone, 0)
		pipe.Set(ctx, s.key(autoSendKey), strconv.FormatBool(settings.AutoSend), 0)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("persistence: save settings: %w", err)
	}
	return nil
}

func (s *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

var _ Store = (*RedisStore)(nil)
