package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned by Dispatch once the store loop has exited
var ErrStopped = errors.New("store stopped")

// Change is published to subscribers after every applied action
type Change struct {
	Action Action
	State  State
}

type dispatchRequest struct {
	action  Action
	applied chan State
}

// Store owns the dashboard state. All mutations are queued and applied one at a
// time on the goroutine running Run, in the order Dispatch was called.
type Store struct {
	logger *zap.Logger
	queue  chan dispatchRequest
	done   chan struct{}

	mutex sync.RWMutex
	state State

	subsMutex   sync.Mutex
	subscribers map[chan Change]struct{}
}

// New creates a store holding initial. Run must be started before Dispatch is used.
func New(initial State, logger *zap.Logger) *Store {
	return &Store{
		logger:      logger,
		queue:       make(chan dispatchRequest),
		done:        make(chan struct{}),
		state:       initial,
		subscribers: make(map[chan Change]struct{}),
	}
}

// Run applies queued actions until ctx is cancelled
func (s *Store) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("store loop stopped")
			return
		case req := <-s.queue:
			next := Reduce(s.State(), req.action)

			s.mutex.Lock()
			s.state = next
			s.mutex.Unlock()

			req.applied <- next
			s.publish(Change{Action: req.action, State: next})
		}
	}
}

// Dispatch queues action and blocks until it has been applied, returning the new state
func (s *Store) Dispatch(ctx context.Context, action Action) (State, error) {
	req := dispatchRequest{action: action, applied: make(chan State, 1)}

	select {
	case s.queue <- req:
	case <-s.done:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case st := <-req.applied:
		return st, nil
	case <-s.done:
		return State{}, ErrStopped
	}
}

// State returns the latest applied snapshot
func (s *Store) State() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

// Subscribe returns a channel of changes and a function that cancels the subscription.
// Slow subscribers miss changes rather than block the store.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)

	s.subsMutex.Lock()
	s.subscribers[ch] = struct{}{}
	s.subsMutex.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMutex.Lock()
			delete(s.subscribers, ch)
			s.subsMutex.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(change Change) {
	s.subsMutex.Lock()
	defer s.subsMutex.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- change:
		default:
			s.logger.Warn("subscriber channel full, dropping change",
				zap.String("action", change.Action.Type()))
		}
	}
}
