// Package subscription maintains the background tasks feeding the real-time
// view: one task per subscription id, all multiplexed onto a single event
// stream. Tasks ride the node's push subscription when the connection
// supports it and degrade to fixed-interval polling when it does not.
package subscription

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"
	"github.com/Belloabraham121/warpscan/internal/metrics"
	"github.com/Belloabraham121/warpscan/internal/models"
	"github.com/Belloabraham121/warpscan/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainSource is the slice of the RPC adapter subscription tasks need. The
// underlying connection is shared with the data service.
type ChainSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*models.Block, error)
	SubscribeNewHeads(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	SupportsSubscriptions() bool
}

type task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the subscription tasks. All methods are safe for concurrent
// use.
type Manager struct {
	source       ChainSource
	logger       *logger.Logger
	pollInterval time.Duration
	events       chan models.Event

	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
}

// NewManager creates a manager emitting onto a buffered stream. A zero
// pollInterval defaults to two seconds.
func NewManager(source ChainSource, log *logger.Logger, pollInterval time.Duration, buffer int) *Manager {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Manager{
		source:       source,
		logger:       log,
		pollInterval: pollInterval,
		events:       make(chan models.Event, buffer),
		tasks:        make(map[string]*task),
	}
}

// Events returns the multiplexed stream. Events are ordered per subscription
// only; the channel is closed by Close.
func (m *Manager) Events() <-chan models.Event {
	return m.events
}

// SubscribeToBlocks starts a task emitting one NewBlock event per observed
// head change. An existing task under the same id is cancelled first, so
// there is never more than one task per id.
func (m *Manager) SubscribeToBlocks(id string) error {
	return m.start(id, func(ctx context.Context) {
		m.runBlocks(ctx, id)
	})
}

// SubscribeToAddress starts a task emitting one event per transaction where
// the address is sender or recipient.
func (m *Manager) SubscribeToAddress(id, address string) error {
	if !common.IsHexAddress(address) {
		return &errs.ValidationError{Field: "address", Reason: "not a hex address"}
	}
	return m.start(id, func(ctx context.Context) {
		m.runAddress(ctx, id, address)
	})
}

func (m *Manager) start(id string, run func(ctx context.Context)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errs.Network("subscribe", context.Canceled)
	}
	prev := m.tasks[id]
	delete(m.tasks, id)
	m.mu.Unlock()

	// Cancel-then-restart: the prior task is fully drained before the
	// replacement spawns, so one new block never yields duplicate events.
	if prev != nil {
		prev.cancel()
		<-prev.done
		metrics.ActiveSubscriptions.Dec()
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{id: id, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return errs.Network("subscribe", context.Canceled)
	}
	m.tasks[id] = t
	m.mu.Unlock()

	metrics.ActiveSubscriptions.Inc()
	go func() {
		defer close(t.done)
		run(ctx)
	}()
	return nil
}

// Unsubscribe cancels the task for id, if any. In-flight sends at
// cancellation may be dropped.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	t := m.tasks[id]
	delete(m.tasks, id)
	m.mu.Unlock()

	if t != nil {
		t.cancel()
		<-t.done
		metrics.ActiveSubscriptions.Dec()
	}
}

// UnsubscribeAll cancels every task.
func (m *Manager) UnsubscribeAll() {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = make(map[string]*task)
	m.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
		<-t.done
		metrics.ActiveSubscriptions.Dec()
	}
}

// Close cancels every task and closes the event stream. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	tasks := m.tasks
	m.tasks = make(map[string]*task)
	m.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
		<-t.done
		metrics.ActiveSubscriptions.Dec()
	}
	close(m.events)
}

// ActiveIDs returns the ids with a live task.
func (m *Manager) ActiveIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	return ids
}

// emit delivers ev unless the task is cancelled first.
func (m *Manager) emit(ctx context.Context, ev models.Event) {
	select {
	case m.events <- ev:
		metrics.SubscriptionEventsTotal.WithLabelValues(ev.EventType()).Inc()
	case <-ctx.Done():
	}
}

// fail converts a task-internal backend failure into one terminal
// SubscriptionError event and forgets the subscription. The manager itself
// never crashes on task failure.
func (m *Manager) fail(ctx context.Context, id string, err error) {
	m.logger.Warn("subscription %s failed: %v", id, err)
	m.emit(ctx, models.SubscriptionErrorEvent{ID: id, Message: err.Error()})

	m.mu.Lock()
	if t, ok := m.tasks[id]; ok {
		delete(m.tasks, id)
		metrics.ActiveSubscriptions.Dec()
		// The task is failing itself; cancel releases its context without
		// waiting on done, which would deadlock here.
		t.cancel()
	}
	m.mu.Unlock()
}
