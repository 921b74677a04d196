package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/skosovsky/fieldchat"
	"github.com/skosovsky/fieldchat/adapter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeChatter struct {
	calls   int
	chunks  []string
	err     error
	lastReq *api.ChatRequest
}

func (f *fakeChatter) Chat(_ context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := fn(api.ChatResponse{Message: api.Message{Role: "assistant", Content: c}}); err != nil {
			return err
		}
	}
	return nil
}

func newModel(t *testing.T, c Chatter, opts ...Option) *Model {
	t.Helper()
	m, err := New(c, opts...)
	require.NoError(t, err)
	return m
}

func user(parts ...fieldchat.ContentPart) fieldchat.ChatMessage {
	return fieldchat.ChatMessage{Role: fieldchat.RoleUser, Parts: parts}
}

func ExampleModel_Translate() {
	m, _ := New(&fakeChatter{})
	req, _ := m.Translate([]fieldchat.ChatMessage{user(fieldchat.TextPart{Text: "Hello"})}, nil)
	fmt.Println(req.Messages[0].Content)
	// Output: Hello
}

func TestNew_NilClient(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	require.ErrorIs(t, err, adapter.ErrNilClient)
}

func TestTranslate_Messages(t *testing.T) {
	t.Parallel()
	m := newModel(t, &fakeChatter{}, WithModel("qwen2.5"))
	req, err := m.Translate([]fieldchat.ChatMessage{
		{Role: fieldchat.RoleSystem, Text: "Your input fields are:"},
		user(fieldchat.MediaPart{URL: "data:image/jpeg;base64,/9g="}, fieldchat.TextPart{Text: "[[[ ### q ### ]]]\nx"}),
		{Role: fieldchat.RoleAssistant, Parts: []fieldchat.ContentPart{fieldchat.TextPart{Text: "[[[ ### a ### ]]]\n1"}}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "[[[ ### q ### ]]]\nx", req.Messages[1].Content)
	require.Len(t, req.Messages[1].Images, 1)
	assert.Equal(t, api.ImageData([]byte{0xff, 0xd8}), req.Messages[1].Images[0])
	assert.Equal(t, "assistant", req.Messages[2].Role)
}

func TestTranslate_ModelConfig(t *testing.T) {
	t.Parallel()
	m := newModel(t, &fakeChatter{})
	req, err := m.Translate(nil, map[string]any{
		"model":       "mistral",
		"temperature": 0.5,
		"max_tokens":  int64(100),
		"stop":        []string{"END"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mistral", req.Model)
	assert.InDelta(t, 0.5, req.Options["temperature"], 1e-9)
	assert.Equal(t, int64(100), req.Options["num_predict"])
	assert.Equal(t, []string{"END"}, req.Options["stop"])
}

func TestTranslate_NoOptionsWhenUnset(t *testing.T) {
	t.Parallel()
	req, err := newModel(t, &fakeChatter{}).Translate(nil, map[string]any{"n": 2})
	require.NoError(t, err)
	assert.Nil(t, req.Options)
}

func TestTranslate_MediaNotDataURI(t *testing.T) {
	t.Parallel()
	_, err := newModel(t, &fakeChatter{}).Translate([]fieldchat.ChatMessage{
		user(fieldchat.MediaPart{URL: "https://example.com/img.png"}, fieldchat.TextPart{}),
	}, nil)
	require.ErrorIs(t, err, adapter.ErrInvalidDataURI)
}

func TestTranslate_UnsupportedRole(t *testing.T) {
	t.Parallel()
	_, err := newModel(t, &fakeChatter{}).Translate([]fieldchat.ChatMessage{{Role: "tool", Text: "x"}}, nil)
	require.ErrorIs(t, err, adapter.ErrUnsupportedRole)
}

func TestComplete_JoinsChunks(t *testing.T) {
	t.Parallel()
	fc := &fakeChatter{chunks: []string{"[[[ ### a ### ]]]\n", "X"}}
	got, err := newModel(t, fc).Complete(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"[[[ ### a ### ]]]\nX"}, got)
}

func TestComplete_OneCallPerCandidate(t *testing.T) {
	t.Parallel()
	fc := &fakeChatter{chunks: []string{"x"}}
	got, err := newModel(t, fc).Complete(context.Background(), nil, map[string]any{"n": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x", "x"}, got)
	assert.Equal(t, 3, fc.calls)
}

func TestComplete_Errors(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	_, err := newModel(t, &fakeChatter{err: boom}).Complete(context.Background(), nil, nil)
	assert.Equal(t, boom, err)

	_, err = newModel(t, &fakeChatter{}).Complete(context.Background(), nil, nil)
	require.ErrorIs(t, err, adapter.ErrEmptyResponse)
}

func TestComplete_HTTP(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req api.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   req.Model,
			Message: api.Message{Role: "assistant", Content: "[[[ ### answer ### ]]]\n4\n\n[[[ ### completed ### ]]]"},
			Done:    true,
		})
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	m := newModel(t, api.NewClient(base, srv.Client()))

	sig := fieldchat.MustSignature(
		[]fieldchat.Field{fieldchat.TextField("question", "")},
		[]fieldchat.Field{fieldchat.TextField("answer", "")},
		"",
	)
	results, err := fieldchat.NewClient().Exchange(context.Background(), fieldchat.Request{
		Model:     m,
		Signature: sig,
		Inputs:    fieldchat.Values{"question": "2+2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []fieldchat.ParsedFields{{"answer": "4"}}, results)
}
