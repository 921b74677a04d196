package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/fieldchat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTextFromParts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		parts []fieldchat.ContentPart
		want  string
	}{
		{"nil slice", nil, ""},
		{"single text", []fieldchat.ContentPart{fieldchat.TextPart{Text: "hello"}}, "hello"},
		{"mixed parts", []fieldchat.ContentPart{
			fieldchat.MediaPart{URL: "data:image/jpeg;base64,AA=="},
			fieldchat.TextPart{Text: "x"},
			fieldchat.TextPart{Text: "y"},
		}, "xy"},
		{"no text", []fieldchat.ContentPart{fieldchat.MediaPart{URL: "https://x"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TextFromParts(tt.parts))
		})
	}
}

func TestExtractModelConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cfg   map[string]any
		check func(t *testing.T, mp ModelParams)
	}{
		{"nil map", nil, func(t *testing.T, mp ModelParams) {
			assert.Equal(t, ModelParams{}, mp)
			assert.Equal(t, 1, mp.Candidates())
		}},
		{"temperature int", map[string]any{"temperature": 1}, func(t *testing.T, mp ModelParams) {
			require.NotNil(t, mp.Temperature)
			assert.InDelta(t, 1.0, *mp.Temperature, 1e-9)
		}},
		{"max_tokens whole float", map[string]any{"max_tokens": float64(300)}, func(t *testing.T, mp ModelParams) {
			require.NotNil(t, mp.MaxTokens)
			assert.Equal(t, int64(300), *mp.MaxTokens)
		}},
		{"stop single string", map[string]any{"stop": "END"}, func(t *testing.T, mp ModelParams) {
			assert.Equal(t, []string{"END"}, mp.Stop)
		}},
		{"n", map[string]any{"n": 3}, func(t *testing.T, mp ModelParams) {
			assert.Equal(t, 3, mp.Candidates())
		}},
		{"n zero ignored", map[string]any{"n": 0}, func(t *testing.T, mp ModelParams) {
			assert.Nil(t, mp.N)
		}},
		{"all keys", map[string]any{
			"model":       "gpt-4o-mini",
			"temperature": 0.5,
			"max_tokens":  int64(50),
			"top_p":       0.95,
			"stop":        []any{"END"},
		}, func(t *testing.T, mp ModelParams) {
			assert.Equal(t, "gpt-4o-mini", mp.Model)
			require.NotNil(t, mp.Temperature)
			assert.InDelta(t, 0.5, *mp.Temperature, 1e-9)
			require.NotNil(t, mp.MaxTokens)
			assert.Equal(t, int64(50), *mp.MaxTokens)
			require.NotNil(t, mp.TopP)
			assert.InDelta(t, 0.95, *mp.TopP, 1e-9)
			assert.Equal(t, []string{"END"}, mp.Stop)
		}},
		{"invalid types ignored", map[string]any{"temperature": "high", "model": 4, "max_tokens": 1.5}, func(t *testing.T, mp ModelParams) {
			assert.Equal(t, ModelParams{}, mp)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, ExtractModelConfig(tt.cfg))
		})
	}
}

func TestSplitSystem(t *testing.T) {
	t.Parallel()
	msgs := []fieldchat.ChatMessage{
		{Role: fieldchat.RoleSystem, Text: "rules"},
		{Role: fieldchat.RoleUser, Parts: []fieldchat.ContentPart{fieldchat.TextPart{Text: "q"}}},
		{Role: fieldchat.RoleAssistant, Parts: []fieldchat.ContentPart{fieldchat.TextPart{Text: "a"}}},
	}
	system, rest := SplitSystem(msgs)
	assert.Equal(t, "rules", system)
	require.Len(t, rest, 2)
	assert.Equal(t, fieldchat.RoleUser, rest[0].Role)
}

func TestSplitDataURI(t *testing.T) {
	t.Parallel()
	mt, data, err := SplitDataURI("data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	assert.Equal(t, "AAAA", data)

	for _, bad := range []string{"https://x/y.png", "data:image/png,AAAA", "data:image/png;base64", "data:;base64,AA"} {
		_, _, err := SplitDataURI(bad)
		require.ErrorIs(t, err, ErrInvalidDataURI, bad)
	}
}

func TestDecodeDataURI(t *testing.T) {
	t.Parallel()
	mt, data, err := DecodeDataURI("data:image/jpeg;base64,/9g=")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mt)
	assert.Equal(t, []byte{0xff, 0xd8}, data)

	_, _, err = DecodeDataURI("data:image/jpeg;base64,!!!")
	require.ErrorIs(t, err, ErrInvalidDataURI)
}
