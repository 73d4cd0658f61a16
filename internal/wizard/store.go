// internal/wizard/store.go
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StepStore persists the current step index of a wizard between visits.
type StepStore interface {
	// Load returns found=false when nothing was saved for formID.
	Load(ctx context.Context, formID string) (step int, found bool, err error)
	Save(ctx context.Context, formID string, step int) error
	Clear(ctx context.Context, formID string) error
}

// MemoryStepStore keeps step indices in process memory.
type MemoryStepStore struct {
	mu    sync.RWMutex
	steps map[string]int
}

func NewMemoryStepStore() *MemoryStepStore {
	return &MemoryStepStore{steps: make(map[string]int)}
}

func (m *MemoryStepStore) Load(_ context.Context, formID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	step, ok := m.steps[formID]
	return step, ok, nil
}

func (m *MemoryStepStore) Save(_ context.Context, formID string, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[formID] = step
	return nil
}

func (m *MemoryStepStore) Clear(_ context.Context, formID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.steps, formID)
	return nil
}

// RedisStepStore keeps step indices under prefix+formID with a TTL.
type RedisStepStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStepStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStepStore {
	return &RedisStepStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStepStore) key(formID string) string {
	return r.prefix + formID
}

func (r *RedisStepStore) Load(ctx context.Context, formID string) (int, bool, error) {
	val, err := r.client.Get(ctx, r.key(formID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load step: %w", err)
	}
	step, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("load step: corrupt value %q: %w", val, err)
	}
	return step, true, nil
}

func (r *RedisStepStore) Save(ctx context.Context, formID string, step int) error {
	if err := r.client.Set(ctx, r.key(formID), strconv.Itoa(step), r.ttl).Err(); err != nil {
		return fmt.Errorf("save step: %w", err)
	}
	return nil
}

func (r *RedisStepStore) Clear(ctx context.Context, formID string) error {
	if err := r.client.Del(ctx, r.key(formID)).Err(); err != nil {
		return fmt.Errorf("clear step: %w", err)
	}
	return nil
}
