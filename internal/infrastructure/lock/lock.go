package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saradorri/tournamentledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AccountKey is the lock key serializing balance mutations of one account.
func AccountKey(accountID int64) string {
	return fmt.Sprintf("account:%d", accountID)
}

// TournamentKey is the lock key serializing slot and lifecycle changes of one tournament.
func TournamentKey(tournamentID int64) string {
	return fmt.Sprintf("tournament:%d", tournamentID)
}

// Manager hands out one in-process lock per entity key. It narrows contention
// on a single instance; the conditional SQL updates stay the source of truth
// across instances.
type Manager struct {
	locks   sync.Map // map[string]chan struct{}
	timeout time.Duration
	logger  *logger.Logger
}

// NewManager creates a lock manager whose Lock gives up after timeout
func NewManager(timeout time.Duration, log *logger.Logger) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log.Debug("Lock manager initialized", zap.Duration("timeout", timeout))
	return &Manager{
		timeout: timeout,
		logger:  log,
	}
}

// Lock acquires the lock for key, waiting at most the configured timeout
func (m *Manager) Lock(ctx context.Context, key string) error {
	sem := m.getOrCreate(key)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		m.logger.Debug("Lock acquired", zap.String("key", key))
		return nil
	case <-ctx.Done():
		m.logger.Warn("Failed to acquire lock: context cancelled", zap.String("key", key), zap.Error(ctx.Err()))
		return fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
	case <-timer.C:
		m.logger.Warn("Failed to acquire lock: timeout", zap.String("key", key), zap.Duration("timeout", m.timeout))
		return fmt.Errorf("failed to acquire lock %s: %w", key, context.DeadlineExceeded)
	}
}

// LockAll acquires every key in order, releasing the ones already held on failure
func (m *Manager) LockAll(ctx context.Context, keys ...string) (func(), error) {
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.Unlock(held[i])
		}
	}
	for _, key := range keys {
		if err := m.Lock(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}
	return release, nil
}

// Unlock releases the lock for key
func (m *Manager) Unlock(key string) {
	v, ok := m.locks.Load(key)
	if !ok {
		m.logger.Warn("No lock found during unlock", zap.String("key", key))
		return
	}
	select {
	case <-v.(chan struct{}):
		m.logger.Debug("Lock released", zap.String("key", key))
	default:
		m.logger.Warn("Unlock of a lock that is not held", zap.String("key", key))
	}
}

// TryLock attempts to acquire a lock without blocking
func (m *Manager) TryLock(key string) bool {
	select {
	case m.getOrCreate(key) <- struct{}{}:
		return true
	default:
		return false
	}
}

func (m *Manager) getOrCreate(key string) chan struct{} {
	if v, ok := m.locks.Load(key); ok {
		return v.(chan struct{})
	}
	actual, _ := m.locks.LoadOrStore(key, make(chan struct{}, 1))
	return actual.(chan struct{})
}
