package locker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "event-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocal_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_TimesOutAsConflict(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "busy")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "busy")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLocal_UnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestLocal_ForgetsIdleKeys(t *testing.T) {
	l := NewLocal()
	for i := 0; i < 100; i++ {
		unlock, err := l.Lock(context.Background(), fmt.Sprintf("import:%d", i))
		require.NoError(t, err)
		unlock()
	}
	assert.Equal(t, 0, l.Len())

	held, err := l.Lock(context.Background(), "busy")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "busy")
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 1, l.Len())

	waited := make(chan error, 1)
	go func() {
		unlock, err := l.Lock(context.Background(), "busy")
		if err == nil {
			unlock()
		}
		waited <- err
	}()
	held()
	require.NoError(t, <-waited)
	assert.Equal(t, 0, l.Len())
}

func TestLocal_RejectsEmptyKey(t *testing.T) {
	_, err := NewLocal().Lock(context.Background(), "")
	assert.Error(t, err)
}
