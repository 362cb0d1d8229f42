package streaming

import (
	"context"
	"sync"

	"github.com/loglens/loglens/internal/parser"
	"github.com/loglens/loglens/pkg/types"
)

// maxLineBytes is the per-line framing cap shared by every source kind,
// per spec.md §4.I.
const maxLineBytes = 1 << 20

// lineSink receives one raw line from a source's framer, in arrival order.
type lineSink func(line string)

// runParser wraps a lineSink with the source's configured Parser,
// publishing each resulting LogEntry to publish. Child-process sources
// frame stdout and stderr on two concurrent goroutines, and the
// TCP-listener source frames one connection per goroutine, so the
// returned sink serializes access to lineNo and to publish itself with a
// mutex rather than assuming a single caller goroutine.
func runParser(cfg types.ParserConfig, publish func(types.LogEntry)) lineSink {
	p := parser.New(cfg)
	var mu sync.Mutex
	lineNo := 0
	return func(line string) {
		mu.Lock()
		defer mu.Unlock()
		lineNo++
		publish(p.ParseLine(line, lineNo))
	}
}

// source is the internal capability every concrete source kind
// implements; Manager drives it through run and stops it by cancelling ctx.
type source interface {
	run(ctx context.Context, onLine lineSink) error
}

// httpRegistry lets an httpSinkSource mount itself on the Manager's single
// shared HTTP server instead of opening its own listener.
type httpRegistry interface {
	register(pathPrefix string, onLine lineSink) (unregister func())
}

// newSource builds the concrete source for cfg.Kind. reg is only consulted
// for SourceHTTPSink.
func newSource(cfg types.StreamingSourceConfig, reg httpRegistry) (source, error) {
	switch cfg.Kind {
	case types.SourceFileTail:
		return &fileTailSource{path: cfg.Path}, nil
	case types.SourceChildProcess:
		return &childProcessSource{command: cfg.Command, args: cfg.Args}, nil
	case types.SourceTCPListener:
		return &tcpListenerSource{bindAddr: cfg.BindAddr}, nil
	case types.SourceHTTPSink:
		return &httpSinkSource{pathPrefix: cfg.PathPrefix, registry: reg}, nil
	case types.SourceStdin:
		return &stdinSource{}, nil
	default:
		return nil, errUnsupportedKind(cfg.Kind)
	}
}
