package fieldchat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharFallbackCounter_Count(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cpt  int
		text string
		want int
	}{
		{"empty default", 0, "", 0},
		{"empty cpt4", 4, "", 0},
		{"ASCII short default", 0, "hello", 2}, // 5 runes / 4 rounded up
		{"ASCII exact", 4, "abcd", 1},
		{"ASCII longer", 4, "abcdefgh", 2},
		{"Cyrillic", 4, "привет", 2},
		{"Cyrillic cpt2", 2, "привет", 3},
		{"limit over len", 4, "hi", 1},
		{"unicode mixed", 4, "Hello 世界", 2},
		{"negative cpt uses 4", -1, "1234", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &CharFallbackCounter{CharsPerToken: tt.cpt}
			got, err := c.Count(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountMessages(t *testing.T) {
	t.Parallel()
	msgs := []ChatMessage{
		{Role: RoleSystem, Text: "abcd"},
		{Role: RoleUser, Parts: []ContentPart{MediaPart{URL: "data:image/jpeg;base64,AAAAAAAAAAAA"}, TextPart{Text: "abcdefgh"}}},
	}
	n, err := CountMessages(&CharFallbackCounter{}, msgs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

type failingCounter struct{}

func (failingCounter) Count(string) (int, error) { return 0, errors.New("tokenizer down") }

func TestCountMessages_Error(t *testing.T) {
	t.Parallel()
	_, err := CountMessages(failingCounter{}, []ChatMessage{{Role: RoleUser, Text: "x"}})
	require.Error(t, err)
}
