package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loglens/loglens/pkg/types"
)

func TestHub_PublishDeliversToSubscriber(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("src1")
	defer unsub()

	h.Publish("src1", types.LogEntry{Message: "hello"})

	select {
	case e := <-ch:
		assert.Equal(t, "hello", e.Message)
	case <-time.After(time.Second):
		t.Fatal("expected entry on subscriber channel")
	}
}

func TestHub_SlowSubscriberDropsOldestRatherThanBlocking(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("src1")
	defer unsub()

	for i := 0; i < hubBufferSize+10; i++ {
		h.Publish("src1", types.LogEntry{Message: "x"})
	}
	// Must not deadlock or panic; channel stays at its buffered capacity.
	assert.LessOrEqual(t, len(ch), hubBufferSize)
}

func TestHub_PublishWithNoSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	require.NotPanics(t, func() {
		h.Publish("nobody-listening", types.LogEntry{Message: "x"})
	})
}
