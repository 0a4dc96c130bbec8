package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrLockTimeout is returned when the booking lock could not be taken within the wait window
var ErrLockTimeout = errors.New("timed out waiting for booking lock")

// releaseLockScript deletes the key only while it still holds our token, so an
// expired holder can never release a lock taken over by someone else.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// renewLockScript pushes the expiry forward while the key still holds our token
var renewLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// =============================================================================
// Constants
// =============================================================================

const (
	// BookingLockKey serializes date assignment, sequence numbers and reschedules
	BookingLockKey = "booking:assign"

	RedisLockKeyPrefix = "lock:"

	// Timeout for the release call, detached from the request context
	lockReleaseTimeout = 2 * time.Second

	redisLockRetryInterval = 25 * time.Millisecond
	localLockRetryInterval = 5 * time.Millisecond

	// Interval for cleaning up stale mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// =============================================================================
// Types
// =============================================================================

// BookingLocker guards the check-then-write section of a booking. Acquire
// blocks until the key is held, the wait window elapses (ErrLockTimeout) or
// ctx is done. The returned release func is safe to call once.
type BookingLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	Stop()
}

// RedisBookingLocker is a SET NX PX lock shared by every process talking to the same redis.
// While held, the key's expiry is renewed every ttl/3 so a slow transaction keeps the lock.
type RedisBookingLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
	wait        time.Duration
}

// LocalBookingLocker is an in-process lock for single-instance deployments.
//
// Lock Ordering:
// 1. Acquire key mutex FIRST
// 2. Then open the DB transaction
type LocalBookingLocker struct {
	log  *logrus.Logger
	wait time.Duration

	keyMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// mutexWithTimestamp tracks mutex usage for cleanup
type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// =============================================================================
// Constructors
// =============================================================================

func NewRedisBookingLocker(redisClient *redis.Client, log *logrus.Logger, ttl, wait time.Duration) *RedisBookingLocker {
	return &RedisBookingLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
		wait:        wait,
	}
}

// NewLocalBookingLocker starts the background mutex cleanup.
// Call Stop() during graceful shutdown.
func NewLocalBookingLocker(log *logrus.Logger, wait time.Duration) *LocalBookingLocker {
	l := &LocalBookingLocker{
		log:      log,
		wait:     wait,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

// =============================================================================
// Redis backend
// =============================================================================

func (l *RedisBookingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := RedisLockKeyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(redisLockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.redisClient.SetNX(waitCtx, lockKey, token, l.ttl).Result()
		if err != nil && waitCtx.Err() == nil {
			l.log.Warnf("Failed to acquire redis lock %s: %+v", lockKey, err)
			return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.renewLoop(lockKey, token, stop, done)
			return l.releaseFunc(lockKey, token, stop, done), nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// renewLoop keeps the key alive until stop is closed or the key is lost
func (l *RedisBookingLocker) renewLoop(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
			renewed, err := renewLockScript.Run(ctx, l.redisClient, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.log.Warnf("Failed to renew redis lock %s: %+v", lockKey, err)
				continue
			}
			if renewed == 0 {
				l.log.Warnf("Redis lock %s expired before release", lockKey)
				return
			}
		}
	}
}

func (l *RedisBookingLocker) releaseFunc(lockKey, token string, stop chan<- struct{}, done <-chan struct{}) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
			defer cancel()
			if err := releaseLockScript.Run(ctx, l.redisClient, []string{lockKey}, token).Err(); err != nil {
				// the key still expires after ttl
				l.log.Warnf("Failed to release redis lock %s: %+v", lockKey, err)
			}
		})
	}
}

// Stop is a no-op; redis keys expire on their own.
func (l *RedisBookingLocker) Stop() {}

// =============================================================================
// Local backend
// =============================================================================

func (l *LocalBookingLocker) Acquire(ctx context.Context, key string) (func(), error) {
	mt := l.getKeyMutex(key)

	if !mt.mu.TryLock() {
		waitCtx, cancel := context.WithTimeout(ctx, l.wait)
		defer cancel()

		ticker := time.NewTicker(localLockRetryInterval)
		defer ticker.Stop()

		for !mt.mu.TryLock() {
			select {
			case <-waitCtx.Done():
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, ErrLockTimeout
			case <-ticker.C:
			}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			mt.lastUsed.Store(time.Now().Unix())
			mt.mu.Unlock()
		})
	}, nil
}

// Stop gracefully shuts down the cleanup loop.
// Safe to call multiple times.
func (l *LocalBookingLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("LocalBookingLocker stopped")
	}
}

// getKeyMutex returns mutex for a specific lock key
func (l *LocalBookingLocker) getKeyMutex(key string) *mutexWithTimestamp {
	mt, _ := l.keyMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

// cleanupMutexMapLoop runs in background to clean stale mutexes
func (l *LocalBookingLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes removes unused mutexes. lastUsed is checked while
// holding the lock so a concurrent getKeyMutex cannot slip in between.
func (l *LocalBookingLocker) cleanupStaleMutexes(cutoff time.Time) int {
	cutoffUnix := cutoff.Unix()
	var cleaned int

	l.keyMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffUnix {
				l.keyMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
	return cleaned
}
