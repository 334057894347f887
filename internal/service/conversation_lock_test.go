package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryConversationLocker(t *testing.T) {
	t.Run("serializa la misma conversacion", func(t *testing.T) {
		locker := NewMemoryConversationLocker()
		var active, maxActive int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(context.Background(), "c1")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				defer unlock()
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&active, -1)
			}()
		}
		wg.Wait()
		if maxActive != 1 {
			t.Fatalf("expected at most one holder, got %d", maxActive)
		}
	})

	t.Run("conversaciones distintas no se bloquean", func(t *testing.T) {
		locker := NewMemoryConversationLocker()
		unlock1, err := locker.Lock(context.Background(), "c1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer unlock1()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		unlock2, err := locker.Lock(ctx, "c2")
		if err != nil {
			t.Fatalf("expected independent lock, got %v", err)
		}
		unlock2()
	})

	t.Run("respeta cancelacion y limpia entradas", func(t *testing.T) {
		locker := NewMemoryConversationLocker().(*memoryConversationLocker)
		unlock, _ := locker.Lock(context.Background(), "c1")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(ctx, "c1"); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}

		unlock()
		unlock() // idempotente
		locker.mu.Lock()
		defer locker.mu.Unlock()
		if len(locker.locks) != 0 {
			t.Fatalf("expected lock map cleaned up, got %d entries", len(locker.locks))
		}
	})
}

func TestNewRedisConversationLocker_NilClient(t *testing.T) {
	if NewRedisConversationLocker(nil, time.Minute, nil) != nil {
		t.Fatalf("expected nil locker without redis client")
	}
}
