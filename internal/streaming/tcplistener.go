package streaming

import (
	"bufio"
	"context"
	"net"

	"github.com/loglens/loglens/pkg/apperr"
)

// maxConcurrentConnections caps simultaneous TCP-listener connections,
// grounded on the log-capture teacher's pkg/ratelimit/adaptive_limiter.go
// shape, adapted from adaptive request-rate limiting to a fixed
// concurrent-connection semaphore.
const maxConcurrentConnections = 64

// tcpListenerSource accepts line-framed connections on bindAddr.
type tcpListenerSource struct {
	bindAddr string
}

func (s *tcpListenerSource) run(ctx context.Context, onLine lineSink) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.bindAddr)
	if err != nil {
		return apperr.New(apperr.IO, "streaming", "tcpListenerSource.run", "listen on "+s.bindAddr).Wrap(err)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	sem := make(chan struct{}, maxConcurrentConnections)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return apperr.New(apperr.IO, "streaming", "tcpListenerSource.run", "accept connection").Wrap(err)
			}
		}

		select {
		case sem <- struct{}{}:
			go func() {
				defer func() { <-sem }()
				handleConn(conn, onLine)
			}()
		default:
			// At capacity: reject rather than queue unboundedly.
			conn.Close()
		}
	}
}

func handleConn(conn net.Conn, onLine lineSink) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		onLine(scanner.Text())
	}
}
