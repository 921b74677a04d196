package fieldchat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSignature(t *testing.T) {
	t.Parallel()
	inputs := []Field{TextField("question", ""), MediaField("photo", "A photo")}
	outputs := []Field{TextField("answer", "Short answer")}
	sig, err := NewSignature(inputs, outputs, "Answer.")
	require.NoError(t, err)
	assert.Equal(t, []string{"question", "photo"}, sig.InputNames())
	assert.Equal(t, []string{"answer"}, sig.OutputNames())
	assert.Equal(t, "${question}", sig.InputFields[0].Spec.Description)
	assert.Empty(t, inputs[0].Spec.Description, "caller slice must not be modified")

	f, ok := sig.Output("answer")
	require.True(t, ok)
	assert.Equal(t, "Short answer", f.Spec.Description)
	assert.True(t, sig.HasOutput("answer"))
	assert.False(t, sig.HasOutput("question"))
}

func TestNewSignature_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		inputs  []Field
		outputs []Field
	}{
		{"empty name", []Field{TextField("", "")}, nil},
		{"marker breaking name", []Field{TextField("my field", "")}, nil},
		{"hyphen", nil, []Field{TextField("a-b", "")}},
		{"duplicate across", []Field{TextField("x", "")}, []Field{TextField("x", "")}},
		{"duplicate within", nil, []Field{TextField("y", ""), TextField("y", "")}},
		{"reserved output", nil, []Field{TextField("completed", "")}},
		{"unknown kind", []Field{{Name: "z", Spec: FieldSpec{Kind: FieldKind(7)}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSignature(tt.inputs, tt.outputs, "")
			require.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestMustSignature_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { MustSignature([]Field{TextField("bad name", "")}, nil, "") })
}

func TestCloneSignature(t *testing.T) {
	t.Parallel()
	sig := qaSignature(t)
	clone := CloneSignature(sig)
	clone.OutputFields[0].Name = "changed"
	assert.Equal(t, "answer", sig.OutputFields[0].Name)
	assert.Nil(t, CloneSignature(nil))
}

func TestFieldKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "media", KindMedia.String())
	assert.Equal(t, "FieldKind(9)", FieldKind(9).String())
	assert.Equal(t, "suspending", ModeSuspending.String())
	assert.Equal(t, "blocking", ModeBlocking.String())
}
