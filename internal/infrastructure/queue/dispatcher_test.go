package queue

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/core/ports"
)

type recordingHandler struct {
	mu     sync.Mutex
	byConn map[uint64][]string
	total  int
	done   chan struct{}
	want   int
}

func newRecordingHandler(want int) *recordingHandler {
	return &recordingHandler{byConn: make(map[uint64][]string), done: make(chan struct{}), want: want}
}

func (h *recordingHandler) HandleEvent(_ context.Context, ev ports.RealtimeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byConn[ev.ConnectionID] = append(h.byConn[ev.ConnectionID], string(ev.Data))
	h.total++
	if h.total == h.want {
		close(h.done)
	}
}

func TestDispatcher_PreservesPerConnectionOrder(t *testing.T) {
	const conns, perConn = 5, 50
	h := newRecordingHandler(conns * perConn)
	d := NewDispatcher(3, h, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	var wg sync.WaitGroup
	for c := 1; c <= conns; c++ {
		wg.Add(1)
		go func(conn uint64) {
			defer wg.Done()
			for i := 0; i < perConn; i++ {
				d.Enqueue(ports.RealtimeEvent{ConnectionID: conn, Data: []byte(strconv.Itoa(i))})
			}
		}(uint64(c))
	}
	wg.Wait()

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for events, got %d", h.total)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, seq := range h.byConn {
		if len(seq) != perConn {
			t.Fatalf("conn %d: expected %d events, got %d", conn, perConn, len(seq))
		}
		for i, v := range seq {
			if v != strconv.Itoa(i) {
				t.Fatalf("conn %d: out of order at %d: %v", conn, i, seq)
			}
		}
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, newRecordingHandler(1), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, newRecordingHandler(1), zerolog.Nop())
	for id := uint64(0); id < 32; id++ {
		if d.shardIndex(id) != d.shardIndex(id) || d.shardIndex(id) >= 4 {
			t.Fatalf("bad shard for %d: %d", id, d.shardIndex(id))
		}
	}
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	d := NewDispatcher(1, newRecordingHandler(1), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	// Fill the buffer so the only ready case is the stop signal.
	for i := 0; i < channelBuffer+1; i++ {
		if !d.Enqueue(ports.RealtimeEvent{ConnectionID: 1}) {
			return
		}
	}
	t.Fatalf("expected Enqueue to report a stopped dispatcher")
}
