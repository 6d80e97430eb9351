package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap"
)

// Dispatcher fans states from one source out to every subscriber. A
// subscriber with a full buffer misses the state instead of stalling the rest.
type Dispatcher struct {
	source     <-chan models.State
	bufferSize int
	logger     *zap.Logger

	mu      sync.Mutex
	subs    []chan models.State
	dropped atomic.Int64
}

// NewDispatcher creates a dispatcher reading from source; each subscriber
// gets a buffer of bufferSize states
func NewDispatcher(source <-chan models.State, bufferSize int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		source:     source,
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe registers a new subscriber. Subscribe before Run to see every state.
func (d *Dispatcher) Subscribe() <-chan models.State {
	ch := make(chan models.State, d.bufferSize)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	d.mu.Unlock()
	return ch
}

// Subscribers returns the number of subscribers
func (d *Dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}

// Dropped returns how many deliveries were skipped on full buffers
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Run forwards states until ctx is cancelled or the source closes, then
// closes every subscriber channel
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-d.source:
			if !ok {
				return
			}
			d.fanOut(state)
		}
	}
}

func (d *Dispatcher) fanOut(state models.State) {
	d.mu.Lock()
	subs := d.subs
	d.mu.Unlock()

	missed := 0
	for _, sub := range subs {
		select {
		case sub <- state:
		default:
			missed++
		}
	}

	if missed > 0 {
		d.dropped.Add(int64(missed))
		d.logger.Debug("state dropped for slow subscribers",
			zap.String("mood", state.MoodState),
			zap.Int("missed", missed),
		)
	}
}

func (d *Dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sub := range d.subs {
		close(sub)
	}
}
