package streaming

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/loglens/loglens/pkg/apperr"
)

// childProcessSource runs an external command and streams its merged
// stdout/stderr, line-framed, grounded on the same worker-job shape as
// fileTailSource but driving os/exec.Cmd instead of a tailed file.
type childProcessSource struct {
	command string
	args    []string
}

func (s *childProcessSource) run(ctx context.Context, onLine lineSink) error {
	cmd := exec.CommandContext(ctx, s.command, s.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return apperr.New(apperr.IO, "streaming", "childProcessSource.run", "attach stdout").Wrap(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return apperr.New(apperr.IO, "streaming", "childProcessSource.run", "attach stderr").Wrap(err)
	}

	if err := cmd.Start(); err != nil {
		return apperr.New(apperr.IO, "streaming", "childProcessSource.run", "start command: "+s.command).Wrap(err)
	}

	scan := func(r io.Reader, wg *sync.WaitGroup) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			onLine(scanner.Text())
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go scan(stdout, &wg)
	go scan(stderr, &wg)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return nil
	case <-done:
		return cmd.Wait()
	}
}
