package streaming

import (
	"context"
	"io"

	"github.com/nxadm/tail"

	"github.com/loglens/loglens/pkg/apperr"
)

// fileTailSource tails an on-disk file, resuming at EOF and surviving log
// rotation, directly adapted from the log-capture teacher's
// internal/monitors/file_monitor.go logTailer (nxadm/tail, Follow+ReOpen,
// seek-to-end on first open).
type fileTailSource struct {
	path string
}

func (s *fileTailSource) run(ctx context.Context, onLine lineSink) error {
	t, err := tail.TailFile(s.path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Poll:     false,
	})
	if err != nil {
		return apperr.New(apperr.IO, "streaming", "fileTailSource.run", "tail file: "+s.path).Wrap(err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				continue
			}
			onLine(truncateLine(line.Text))
		}
	}
}

func truncateLine(s string) string {
	if len(s) <= maxLineBytes {
		return s
	}
	return s[:maxLineBytes]
}
