package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore はクライアント単位のログイン失敗回数とロック状態を管理します。
type AttemptStore interface {
	// Locked はロック中なら残り時間を返します。ロックされていなければ 0 です。
	Locked(ctx context.Context, key string) (time.Duration, error)
	// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
	RecordFailure(ctx context.Context, key string) (int, error)
	// Reset は失敗回数とロックを解除します。
	Reset(ctx context.Context, key string) error
}

// ThrottlePolicy はログイン試行制限の設定です。
type ThrottlePolicy struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryAttempts はプロセス内で失敗回数を保持する AttemptStore です。
// 単一インスタンス構成や開発環境向けです。
type MemoryAttempts struct {
	policy   ThrottlePolicy
	now      func() time.Time
	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewMemoryAttempts は MemoryAttempts を作成します。
func NewMemoryAttempts(policy ThrottlePolicy) *MemoryAttempts {
	return &MemoryAttempts{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

func (m *MemoryAttempts) Locked(_ context.Context, key string) (time.Duration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[key]
	if !ok {
		return 0, nil
	}
	now := m.now()
	if !now.Before(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

func (m *MemoryAttempts) RecordFailure(_ context.Context, key string) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	state, ok := m.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > m.policy.Window {
		state = &attemptState{firstAttempt: now}
		m.attempts[key] = state
	}

	state.count++
	if state.count >= m.policy.MaxAttempts {
		state.lockedUntil = now.Add(m.policy.LockDuration)
		state.count = m.policy.MaxAttempts
	}

	remaining := m.policy.MaxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (m *MemoryAttempts) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, key)
	return nil
}

// RedisAttempts は Redis で失敗回数を共有する AttemptStore です。
// 複数インスタンスで同じ制限を適用できます。
type RedisAttempts struct {
	rdb    *redis.Client
	policy ThrottlePolicy
}

// NewRedisAttempts は RedisAttempts を作成します。
func NewRedisAttempts(rdb *redis.Client, policy ThrottlePolicy) *RedisAttempts {
	return &RedisAttempts{rdb: rdb, policy: policy}
}

func (r *RedisAttempts) Locked(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.PTTL(ctx, lockKey(key)).Result()
	if err != nil {
		return 0, err
	}
	// キーがない場合は -2、期限なしは -1 が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisAttempts) RecordFailure(ctx context.Context, key string) (int, error) {
	counter := attemptsKey(key)
	count, err := r.rdb.Incr(ctx, counter).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.rdb.Expire(ctx, counter, r.policy.Window).Err(); err != nil {
			return 0, err
		}
	}

	if int(count) >= r.policy.MaxAttempts {
		pipe := r.rdb.TxPipeline()
		pipe.Set(ctx, lockKey(key), 1, r.policy.LockDuration)
		pipe.Del(ctx, counter)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return r.policy.MaxAttempts - int(count), nil
}

func (r *RedisAttempts) Reset(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, attemptsKey(key), lockKey(key)).Err()
}

func attemptsKey(key string) string {
	return "login:attempts:" + key
}

func lockKey(key string) string {
	return "login:lock:" + key
}
