// Package streaming implements the Streaming Source Manager (spec.md
// §4.I): per-project live sources (File-tail, Child-process, TCP-listener,
// HTTP-sink, Stdin), a broadcast hub for live subscribers, and a bounded
// ring buffer of recent entries per source.
package streaming

import (
	"sync"

	"github.com/loglens/loglens/pkg/types"
)

// hubBufferSize is the per-subscriber channel depth; a subscriber slower
// than the producer has its oldest buffered entry dropped rather than
// blocking the source, grounded on the producer/consumer shape of the
// log-capture teacher's pkg/buffer/disk_buffer.go and pkg/backpressure
// manager (adapted here from disk spill to in-memory drop-oldest, since
// streamed entries are also persisted to the ring buffer table).
const hubBufferSize = 256

// Hub fans out parsed entries for one source to any number of live
// subscribers, lossily.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan types.LogEntry]struct{}
}

// NewHub builds an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan types.LogEntry]struct{})}
}

// Subscribe returns a channel that receives entries published for
// sourceID until unsubscribe is called.
func (h *Hub) Subscribe(sourceID string) (ch chan types.LogEntry, unsubscribe func()) {
	ch = make(chan types.LogEntry, hubBufferSize)

	h.mu.Lock()
	if h.subs[sourceID] == nil {
		h.subs[sourceID] = make(map[chan types.LogEntry]struct{})
	}
	h.subs[sourceID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[sourceID], ch)
		h.mu.Unlock()
		close(ch)
	}
}

// Publish fans e out to every current subscriber of sourceID. A full
// subscriber channel has its oldest entry dropped to make room, rather
// than blocking the source's producer goroutine.
func (h *Hub) Publish(sourceID string, e types.LogEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[sourceID] {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}
