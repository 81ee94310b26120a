package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix     = "import:"
	maxUpdateRetries = 5
)

// ErrJobNotFound はジョブ情報が存在しない（または期限切れの）ことを表します。
var ErrJobNotFound = errors.New("job not found")

// Store はジョブ状態を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore は Store を作成します。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get はジョブ情報を取得します。
func (s *Store) Get(ctx context.Context, jobID string) (*Record, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID is required")
	}
	data, err := s.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert はジョブ情報を保存します（存在しない場合は作成）。
func (s *Store) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	stamp(record, s.ttl)

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobKey(record.JobID), payload, s.ttl).Err()
}

// UpdateProgress は進捗を更新します。
func (s *Store) UpdateProgress(ctx context.Context, jobID string, progress ProgressInfo, imported int) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		record.Status = StatusRunning
		record.Progress = progress
		record.Imported = imported
	})
}

// MarkDone はジョブ完了時の情報を保存します。
func (s *Store) MarkDone(ctx context.Context, jobID string, imported int) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		markDone(record, imported)
	})
}

// MarkFailed はジョブ失敗時の情報を保存します。
func (s *Store) MarkFailed(ctx context.Context, jobID string, errInfo *ErrorInfo) error {
	return s.updatePartial(ctx, jobID, func(record *Record) {
		markFailed(record, errInfo)
	})
}

// updatePartial は WATCH による楽観ロックでレコードを読み替えます。
// 同時更新で競合した場合は数回まで再試行します。
func (s *Store) updatePartial(ctx context.Context, jobID string, mutate func(*Record)) error {
	key := jobKey(jobID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		if err != nil {
			return err
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		mutate(&record)
		record.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update job %s: too many concurrent updates", jobID)
}

func stamp(record *Record, ttl time.Duration) {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.ExpiresAt.IsZero() && ttl > 0 {
		record.ExpiresAt = record.CreatedAt.Add(ttl)
	}
}

func markDone(record *Record, imported int) {
	record.Status = StatusSucceeded
	record.Progress = ProgressInfo{
		Percent: 100,
		Stage:   "completed",
	}
	record.Imported = imported
	record.Error = nil
}

func markFailed(record *Record, errInfo *ErrorInfo) {
	record.Status = StatusFailed
	if errInfo != nil {
		record.Error = errInfo
	}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}
