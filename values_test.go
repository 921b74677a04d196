package fieldchat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesFromStruct(t *testing.T) {
	t.Parallel()
	type payload struct {
		Question string   `field:"question"`
		Context  []string `field:"context"`
		Skipped  string   `field:"-"`
		Untagged string
	}
	got, err := ValuesFromStruct(&payload{Question: "why", Context: []string{"a"}, Skipped: "s", Untagged: "u"})
	require.NoError(t, err)
	assert.Equal(t, Values{"question": "why", "context": []string{"a"}}, got)

	again, err := ValuesFromStruct(payload{Question: "how"})
	require.NoError(t, err)
	assert.Equal(t, "how", again["question"])
}

func TestValuesFromStruct_Invalid(t *testing.T) {
	t.Parallel()
	type noTags struct{ A string }
	var nilPtr *noTags
	for _, in := range []any{nil, 42, "s", noTags{A: "x"}, nilPtr} {
		_, err := ValuesFromStruct(in)
		require.ErrorIs(t, err, ErrInvalidPayload)
	}
}

type stringerValue struct{}

func (stringerValue) String() string { return "stringer" }

func TestRenderValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string verbatim", "  spaced\n", "  spaced\n"},
		{"bytes", []byte("raw"), "raw"},
		{"stringer", stringerValue{}, "stringer"},
		{"error", errors.New("bad"), "bad"},
		{"bool", true, "true"},
		{"float", 0.5, "0.5"},
		{"int", 42, "42"},
		{"duration is a stringer", 2 * time.Second, "2s"},
		{"slice", []int{1, 2}, "[1,2]"},
		{"map", map[string]int{"k": 1}, `{"k":1}`},
		{"struct", struct {
			A string `json:"a"`
		}{"x"}, `{"a":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, renderValue(tt.in))
		})
	}
}

func TestIsZeroValue(t *testing.T) {
	t.Parallel()
	var nilBytes []byte
	assert.True(t, isZeroValue(nil))
	assert.True(t, isZeroValue(""))
	assert.True(t, isZeroValue(nilBytes))
	assert.True(t, isZeroValue(0))
	assert.False(t, isZeroValue("x"))
	assert.False(t, isZeroValue([]byte{0}))
}

func TestValues_With(t *testing.T) {
	t.Parallel()
	v := Values{"a": 1}
	w := v.with("b", 2)
	assert.Equal(t, Values{"a": 1}, v)
	assert.Equal(t, Values{"a": 1, "b": 2}, w)
	assert.Equal(t, Values{"k": "v"}, Values(nil).with("k", "v"))
}
