package fieldchat

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer shared by a slog handler.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func testLogContext(level slog.Level) (context.Context, *syncBuffer) {
	out := &syncBuffer{}
	logger := clog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return clog.WithLogger(context.Background(), logger), out
}

func TestLogCallback_Format(t *testing.T) {
	t.Parallel()
	ctx, out := testLogContext(slog.LevelDebug)
	cb := LogCallback{}
	info := CallInfo{Op: OpFormat, Adapter: "chat", Start: time.Now()}
	ctx = cb.OnStart(ctx, info)
	info.Messages = []ChatMessage{{Role: RoleSystem, Text: "12345678"}}
	cb.OnEnd(ctx, info, nil)

	logs := out.String()
	assert.Contains(t, logs, "fieldchat call started")
	assert.Contains(t, logs, "fieldchat call finished")
	assert.Contains(t, logs, "op=format")
	assert.Contains(t, logs, "prompt_tokens_est=2")
	assert.Contains(t, logs, "messages=1")
}

func TestLogCallback_Failure(t *testing.T) {
	t.Parallel()
	ctx, out := testLogContext(slog.LevelWarn)
	LogCallback{}.OnEnd(ctx, CallInfo{Op: OpModel, Adapter: "json", Fallback: true, Mode: ModeSuspending, Start: time.Now()}, errors.New("quota"))

	logs := out.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "fieldchat call failed")
	assert.Contains(t, logs, "mode=suspending")
	assert.Contains(t, logs, "fallback=true")
	assert.Contains(t, logs, "error=quota")
}

func TestClient_Exchange_LogsFallback(t *testing.T) {
	t.Parallel()
	ctx, out := testLogContext(slog.LevelDebug)
	model := &scriptedModel{responses: [][]string{{"garbage"}, {`{"answer": "4"}`}}}
	client := NewClient(WithCallbacks(LogCallback{}))
	_, err := client.Exchange(ctx, Request{Model: model, Signature: qaSignature(t)})
	require.NoError(t, err)

	logs := out.String()
	assert.Contains(t, logs, "retrying with fallback adapter")
	assert.Contains(t, logs, "fallback=json")
	assert.Contains(t, logs, "op=parse")
	assert.Contains(t, logs, "op=exchange")
}
