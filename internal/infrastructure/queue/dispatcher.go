package queue

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/api/metrics"
	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes realtime events to a fixed set of workers by connection
// id, so events from one connection are handled in the order they were read
// while different connections proceed in parallel.
type Dispatcher struct {
	workers []chan ports.RealtimeEvent
	handler ports.RealtimeEventHandler
	log     zerolog.Logger
	done    <-chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.RealtimeEventHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.RealtimeEvent, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.RealtimeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
// Start must be called before the first Enqueue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.done = ctx.Done()
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands event to the worker owning its connection. It blocks while
// that worker's buffer is full and returns false once the dispatcher stopped.
func (d *Dispatcher) Enqueue(event ports.RealtimeEvent) bool {
	idx := d.shardIndex(event.ConnectionID)
	select {
	case d.workers[idx] <- event:
		metrics.DispatcherQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	case <-d.done:
		return false
	}
}

// shardIndex maps a connection id deterministically to a worker index.
func (d *Dispatcher) shardIndex(connectionID uint64) int {
	return int(connectionID % uint64(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.RealtimeEvent) {
	label := strconv.Itoa(id)
	d.log.Debug().Int("worker_id", id).Msg("dispatcher worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			metrics.DispatcherQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.handler.HandleEvent(ctx, event)
		}
	}
}
