package streaming

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/loglens/loglens/internal/metrics"
	"github.com/loglens/loglens/internal/store"
	"github.com/loglens/loglens/pkg/apperr"
	"github.com/loglens/loglens/pkg/types"
)

// restartBaseDelay and restartMaxDelay bound the exponential backoff
// between restart attempts, grounded on the log-capture teacher's
// internal/dispatcher/retry_manager.go backoff-then-DLQ shape, adapted
// here from "retry a failed batch" to "restart a failed source".
const (
	restartBaseDelay = 500 * time.Millisecond
	restartMaxDelay  = 30 * time.Second
	// restartResetUptime is how long a source must stay Active before its
	// backoff resets to restartBaseDelay.
	restartResetUptime = 2 * time.Minute
)

// tracked is the Manager's live bookkeeping for one running source.
type tracked struct {
	record types.StreamingSource
	cancel context.CancelFunc
	done   chan struct{}
}

// defaultProducerBufferSize is the per-source producer-channel depth used
// when a source's config leaves BufferSize unset, per spec.md §4.I.
const defaultProducerBufferSize = 100

// Manager owns every live StreamingSource for a project set, a shared
// broadcast Hub, a bounded per-source ring buffer persisted via store.DB,
// and (lazily) the single shared HTTP server backing HTTP-sink sources.
type Manager struct {
	db             *store.DB
	hub            *Hub
	logger         *logrus.Logger
	ringBufferSize int

	mu      sync.Mutex
	sources map[string]*tracked

	httpOnce   sync.Once
	httpMu     sync.Mutex
	httpRoutes map[string]lineSink
	httpAddr   string
}

// NewManager builds a Manager. httpAddr is the bind address for the shared
// HTTP-sink server; it is only listened on once the first HTTP-sink
// source starts. ringBufferSize bounds the persisted streaming_logs ring
// per source (spec.md §4.I "bounded ring, default 10 000 entries") and is
// independent of each source's own producer-channel BufferSize.
func NewManager(db *store.DB, httpAddr string, ringBufferSize int, logger *logrus.Logger) *Manager {
	if ringBufferSize <= 0 {
		ringBufferSize = store.DefaultRingBufferSize
	}
	return &Manager{
		db:             db,
		hub:            NewHub(),
		logger:         logger,
		ringBufferSize: ringBufferSize,
		sources:        make(map[string]*tracked),
		httpRoutes:     make(map[string]lineSink),
		httpAddr:       httpAddr,
	}
}

// Hub exposes the broadcast hub for transports that want live tailing
// (e.g. the MCP/HTTP API's subscribe endpoints).
func (m *Manager) Hub() *Hub { return m.hub }

// Start launches a new source from cfg and returns its assigned id.
func (m *Manager) Start(ctx context.Context, cfg types.StreamingSourceConfig) (string, error) {
	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.Background())
	t := &tracked{
		record: types.StreamingSource{ID: id, Config: cfg, Status: types.SourceStarting, StartedAt: time.Now().UTC()},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.sources[id] = t
	m.mu.Unlock()

	go m.supervise(runCtx, id, cfg)
	return id, nil
}

// Stop cancels and removes a running source.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	t, ok := m.sources[id]
	m.mu.Unlock()
	if !ok {
		return apperr.New(apperr.NotFound, "streaming", "Stop", "no such source: "+id)
	}
	t.cancel()
	<-t.done

	m.mu.Lock()
	delete(m.sources, id)
	m.refreshActiveGaugesLocked()
	m.mu.Unlock()
	return nil
}

// List returns a snapshot of every tracked source.
func (m *Manager) List() []types.StreamingSource {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.StreamingSource, 0, len(m.sources))
	for _, t := range m.sources {
		out = append(out, t.record)
	}
	return out
}

// Stats returns one source's current record.
func (m *Manager) Stats(id string) (types.StreamingSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.sources[id]
	if !ok {
		return types.StreamingSource{}, apperr.New(apperr.NotFound, "streaming", "Stats", "no such source: "+id)
	}
	return t.record, nil
}

func (m *Manager) setStatus(id string, status types.SourceStatus, lastErr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.sources[id]; ok {
		t.record.Status = status
		if lastErr != "" {
			t.record.LastError = lastErr
		}
	}
	m.refreshActiveGaugesLocked()
}

// refreshActiveGaugesLocked recomputes the active-sources gauge per kind;
// callers must hold m.mu.
func (m *Manager) refreshActiveGaugesLocked() {
	counts := make(map[types.SourceKind]int)
	for _, t := range m.sources {
		if t.record.Status == types.SourceActive {
			counts[t.record.Config.Kind]++
		}
	}
	for _, kind := range []types.SourceKind{
		types.SourceFileTail, types.SourceChildProcess, types.SourceTCPListener,
		types.SourceHTTPSink, types.SourceStdin,
	} {
		metrics.SetStreamingSourcesActive(string(kind), counts[kind])
	}
}

// supervise runs cfg's source, applying the restart policy on failure and
// persisting every parsed entry to the ring buffer and the broadcast hub.
func (m *Manager) supervise(ctx context.Context, id string, cfg types.StreamingSourceConfig) {
	defer func() {
		m.mu.Lock()
		if t, ok := m.sources[id]; ok {
			close(t.done)
		}
		m.mu.Unlock()
	}()

	delay := restartBaseDelay
	attempts := 0

	for {
		src, err := newSource(cfg, m)
		if err != nil {
			m.setStatus(id, types.SourceFailed, err.Error())
			return
		}

		m.setStatus(id, types.SourceActive, "")
		start := time.Now()

		// entries is the bounded producer channel spec.md §4.I names
		// (BufferSize, default defaultProducerBufferSize): framer
		// goroutines block on a full channel instead of the hub/store
		// absorbing unbounded backlog, so a slow consumer applies real
		// backpressure all the way back to the source.
		bufSize := cfg.BufferSize
		if bufSize <= 0 {
			bufSize = defaultProducerBufferSize
		}
		entries := make(chan types.LogEntry, bufSize)
		drained := make(chan struct{})
		go func() {
			defer close(drained)
			for e := range entries {
				m.hub.Publish(id, e)
				metrics.RecordStreamingEntry(string(cfg.Kind))
				if m.db != nil {
					_ = m.db.AppendStreamingLog(context.Background(), cfg.ProjectID, id, e, m.ringBufferSize)
				}
			}
		}()

		publish := func(e types.LogEntry) {
			entries <- e
		}
		err = src.run(ctx, runParser(cfg.Parser, publish))
		close(entries)
		<-drained

		select {
		case <-ctx.Done():
			m.setStatus(id, types.SourceStopped, "")
			return
		default:
		}

		if err == nil {
			m.setStatus(id, types.SourceStopped, "")
			return
		}

		if !cfg.Restart.RestartOnError {
			m.setStatus(id, types.SourceFailed, err.Error())
			return
		}
		if cfg.Restart.MaxRestarts > 0 && attempts >= cfg.Restart.MaxRestarts {
			m.setStatus(id, types.SourceFailed, err.Error())
			return
		}

		if time.Since(start) >= restartResetUptime {
			delay = restartBaseDelay
			attempts = 0
		}

		attempts++
		m.mu.Lock()
		if t, ok := m.sources[id]; ok {
			t.record.RestartCount = attempts
		}
		m.mu.Unlock()
		metrics.RecordStreamingSourceRestart(string(cfg.Kind))
		m.setStatus(id, types.SourceRestarting, err.Error())

		select {
		case <-ctx.Done():
			m.setStatus(id, types.SourceStopped, "")
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > restartMaxDelay {
			delay = restartMaxDelay
		}
	}
}

// register implements httpRegistry, mounting an HTTP-sink source's route
// on the Manager's single shared server (started lazily on first use).
func (m *Manager) register(pathPrefix string, onLine lineSink) func() {
	m.httpMu.Lock()
	m.httpRoutes[pathPrefix] = onLine
	m.httpMu.Unlock()

	m.httpOnce.Do(m.startHTTPServer)

	return func() {
		m.httpMu.Lock()
		delete(m.httpRoutes, pathPrefix)
		m.httpMu.Unlock()
	}
}

func (m *Manager) startHTTPServer() {
	if m.httpAddr == "" {
		return
	}
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpMu.Lock()
		sink, ok := m.httpRoutes[r.URL.Path]
		m.httpMu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		dispatchHTTPBody(w, r, sink)
	})

	server := &http.Server{Addr: m.httpAddr, Handler: router}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if m.logger != nil {
				m.logger.WithError(err).Error("streaming HTTP sink server stopped")
			}
		}
	}()
}
