package streaming

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/pkg/types"
)

func TestManager_FileTailStartStop(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("first line\n"), 0o644))

	m := NewManager(nil, "", 0, nil)
	id, err := m.Start(context.Background(), types.StreamingSourceConfig{
		Kind: types.SourceFileTail,
		Path: logPath,
	})
	require.NoError(t, err)

	ch, unsub := m.Hub().Subscribe(id)
	defer unsub()

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("second line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case e := <-ch:
		assert.Contains(t, e.Message, "second line")
	case <-time.After(2 * time.Second):
		t.Fatal("expected tailed entry")
	}

	require.NoError(t, m.Stop(id))
	assert.Empty(t, m.List())
}

func TestManager_StopUnknownSourceIsNotFound(t *testing.T) {
	m := NewManager(nil, "", 0, nil)
	err := m.Stop("missing")
	require.Error(t, err)
}

func TestStdinSource_SecondClaimIsConflict(t *testing.T) {
	stdinMu.Lock()
	stdinClaimed = false
	stdinMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	go func() {
		s := &stdinSource{}
		close(started)
		_ = s.run(ctx, func(string) {})
	}()
	<-started
	time.Sleep(20 * time.Millisecond)

	s2 := &stdinSource{}
	err := s2.run(context.Background(), func(string) {})
	require.Error(t, err)
}
