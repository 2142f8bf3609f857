package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/styledna/api/internal/model"
)

// RedisJobStore keeps job records as JSON values with a retention TTL.
// The queue broker shares the same Redis; the record is the polling
// view, the broker state is the execution truth.
type RedisJobStore struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisJobStore creates a job store with the given record retention.
func NewRedisJobStore(rdb *redis.Client, retention time.Duration) *RedisJobStore {
	return &RedisJobStore{rdb: rdb, retention: retention}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

// Save writes the full record, refreshing its TTL.
func (s *RedisJobStore) Save(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return s.rdb.Set(ctx, jobKey(job.ID), data, s.retention).Err()
}

// Get loads a record; unknown or expired IDs yield ErrNotFound.
func (s *RedisJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.rdb.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// RedisActivityStore keeps one Redis list per user-day. RPUSH makes the
// append atomic, so two concurrent writers both land.
type RedisActivityStore struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisActivityStore creates an activity store with the given
// retention per day key.
func NewRedisActivityStore(rdb *redis.Client, retention time.Duration) *RedisActivityStore {
	return &RedisActivityStore{rdb: rdb, retention: retention}
}

func activityKey(userID, date string) string {
	return fmt.Sprintf("activity:%s:%s", userID, date)
}

// Append pushes one record onto the day list and refreshes its TTL.
func (s *RedisActivityStore) Append(ctx context.Context, userID, date string, rec *model.ActivityRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal activity record: %w", err)
	}

	key := activityKey(userID, date)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	return nil
}

// Day returns the records for one user-day, oldest first. Entries that
// fail to decode are skipped; an absent day is an empty slice.
func (s *RedisActivityStore) Day(ctx context.Context, userID, date string) ([]model.ActivityRecord, error) {
	entries, err := s.rdb.LRange(ctx, activityKey(userID, date), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}

	records := make([]model.ActivityRecord, 0, len(entries))
	for _, entry := range entries {
		var rec model.ActivityRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// RedisPhoneDirectory maps normalized phone numbers to user IDs.
type RedisPhoneDirectory struct {
	rdb *redis.Client
}

// NewRedisPhoneDirectory creates the phone-to-user index.
func NewRedisPhoneDirectory(rdb *redis.Client) *RedisPhoneDirectory {
	return &RedisPhoneDirectory{rdb: rdb}
}

func phoneKey(phone string) string {
	return fmt.Sprintf("phone:%s", phone)
}

// Link points a phone number at a user. Last writer wins.
func (d *RedisPhoneDirectory) Link(ctx context.Context, phone, userID string) error {
	return d.rdb.Set(ctx, phoneKey(phone), userID, 0).Err()
}

// Lookup resolves a phone number; unknown numbers yield ErrNotFound.
func (d *RedisPhoneDirectory) Lookup(ctx context.Context, phone string) (string, error) {
	userID, err := d.rdb.Get(ctx, phoneKey(phone)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to look up phone: %w", err)
	}
	return userID, nil
}
