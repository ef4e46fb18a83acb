/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockHeld means another process is running the same job.
var ErrLockHeld = errors.New("job lock held by another process")

// Locker serializes job runs across processes. Acquire returns ErrLockHeld
// when the lock is taken.
type Locker interface {
	Acquire(ctx context.Context, job string) (release func(), err error)
}

// RedisLocker holds a per-job Redis lock for the duration of a run.
type RedisLocker struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(ctx context.Context, address string, ttl time.Duration) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{Addr: address})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", address, err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	zap.L().Info("Job lock backed by redis", zap.String("address", address), zap.Duration("ttl", ttl))
	return &RedisLocker{client: rdb, locker: redislock.New(rdb), ttl: ttl}, nil
}

func lockKey(job string) string {
	return "asset-lifecycle:job:" + job
}

func (l *RedisLocker) Acquire(ctx context.Context, job string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, lockKey(job), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, job)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock for %s: %w", job, err)
	}
	return func() {
		// Use a fresh context; the run context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			zap.L().Warn("Failed to release job lock", zap.String("job", job), zap.Error(err))
		}
	}, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
