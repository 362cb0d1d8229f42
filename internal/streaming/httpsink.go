package streaming

import (
	"bufio"
	"context"
	"net/http"
)

// httpSinkSource mounts itself at pathPrefix on the Manager's single
// shared HTTP server (built on gorilla/mux, the log-capture teacher's HTTP
// stack) rather than opening a listener of its own; registry is the
// Manager.
type httpSinkSource struct {
	pathPrefix string
	registry   httpRegistry
}

func (s *httpSinkSource) run(ctx context.Context, onLine lineSink) error {
	unregister := s.registry.register(s.pathPrefix, onLine)
	defer unregister()

	<-ctx.Done()
	return nil
}

// dispatchHTTPBody scans a POSTed body as newline-delimited log lines and
// forwards each to sink.
func dispatchHTTPBody(w http.ResponseWriter, r *http.Request, sink lineSink) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		sink(scanner.Text())
	}
	w.WriteHeader(http.StatusAccepted)
}
