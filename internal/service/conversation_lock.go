package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConversationLocker serializa el ciclo persistir-construir-invocar-persistir por conversacion.
// unlock debe llamarse en todos los caminos de salida.
type ConversationLocker interface {
	Lock(ctx context.Context, conversationID string) (unlock func(), err error)
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

type memoryConversationLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

// NewMemoryConversationLocker crea un lock por conversacion valido dentro de un solo proceso.
func NewMemoryConversationLocker() ConversationLocker {
	return &memoryConversationLocker{
		locks: make(map[string]*keyedLock),
	}
}

func (l *memoryConversationLocker) Lock(ctx context.Context, conversationID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[conversationID]
	if !ok {
		entry = &keyedLock{ch: make(chan struct{}, 1)}
		l.locks[conversationID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(conversationID, entry)
		return nil, fmt.Errorf("acquire conversation lock: %w", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(conversationID, entry)
		})
	}, nil
}

func (l *memoryConversationLocker) release(conversationID string, entry *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, conversationID)
	}
}

const conversationLockRetryDelay = 250 * time.Millisecond

type redisConversationLocker struct {
	rs     *redsync.Redsync
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisConversationLocker usa redsync para serializar entre varias replicas.
// ttl debe superar el timeout del LLM para que el lock no expire a mitad del turno.
func NewRedisConversationLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) ConversationLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisConversationLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		ttl:    ttl,
		prefix: "chat:lock:",
		logger: logger,
	}
}

func (l *redisConversationLocker) Lock(ctx context.Context, conversationID string) (func(), error) {
	tries := int(l.ttl/conversationLockRetryDelay) + 1
	mutex := l.rs.NewMutex(l.prefix+conversationID,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(conversationLockRetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("acquire conversation lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if _, err := mutex.UnlockContext(unlockCtx); err != nil {
				l.logger.Warn("release conversation lock failed",
					zap.String("conversation_id", conversationID),
					zap.Error(err),
				)
			}
		})
	}, nil
}
