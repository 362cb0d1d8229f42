package streaming

import (
	"bufio"
	"context"
	"os"
	"sync"

	"github.com/loglens/loglens/pkg/apperr"
)

// stdinClaimed guards the process-wide stdin reader: only one stdinSource
// may ever run at a time, since os.Stdin has exactly one reader.
var stdinClaimed = false
var stdinMu sync.Mutex

// stdinSource streams lines from the process's standard input.
type stdinSource struct{}

func (s *stdinSource) run(ctx context.Context, onLine lineSink) error {
	stdinMu.Lock()
	if stdinClaimed {
		stdinMu.Unlock()
		return apperr.New(apperr.Conflict, "streaming", "stdinSource.run", "stdin is already claimed by another source")
	}
	stdinClaimed = true
	stdinMu.Unlock()

	defer func() {
		stdinMu.Lock()
		stdinClaimed = false
		stdinMu.Unlock()
	}()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for scanner.Scan() {
			onLine(scanner.Text())
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-done:
		return scanner.Err()
	}
}
