package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := NewRedisLocker(rdb,
		WithTTL(5*time.Second),
		WithTokenFunc(func() string { return "token-1" }),
	)

	mock.ExpectSetNX("attendance:lock:c:e", "token-1", 5*time.Second).SetVal(true)
	mock.ExpectEval(releaseScript, []string{"attendance:lock:c:e"}, "token-1").SetVal(int64(1))

	release, err := locker.Acquire(context.Background(), "attendance:lock:c:e")
	assert.NoError(t, err)

	release()
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_HeldByOther(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := NewRedisLocker(rdb,
		WithTTL(5*time.Second),
		WithWait(0),
		WithTokenFunc(func() string { return "token-2" }),
	)

	mock.ExpectSetNX("attendance:lock:c:e", "token-2", 5*time.Second).SetVal(false)

	release, err := locker.Acquire(context.Background(), "attendance:lock:c:e")
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.Nil(t, release)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_RedisDown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	locker := NewRedisLocker(rdb, WithTokenFunc(func() string { return "t" }))

	mock.ExpectSetNX("k", "t", DefaultTTL).SetErr(assert.AnError)

	_, err := locker.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLocalLocker_SerialisesSameKey(t *testing.T) {
	locker := NewLocalLocker()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "emp-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestLocalLocker_DifferentKeysDoNotBlock(t *testing.T) {
	locker := NewLocalLocker()

	releaseA, err := locker.Acquire(context.Background(), "emp-a")
	assert.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	releaseB, err := locker.Acquire(ctx, "emp-b")
	assert.NoError(t, err)
	releaseB()
}

func TestLocalLocker_ContextCancelledWhileWaiting(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Acquire(context.Background(), "emp-1")
	assert.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "emp-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
