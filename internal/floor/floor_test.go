package floor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Floor
	}{
		{"knitting", Knitting},
		{"Knitting", Knitting},
		{"FinalChecking", FinalChecking},
		{"final-checking", FinalChecking},
		{"Final Checking", FinalChecking},
		{"final_checking", FinalChecking},
		{"  WAREHOUSE ", Warehouse},
		{"dispatch", Dispatch},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("painting")
	assert.Error(t, err)
}

func TestSequence(t *testing.T) {
	full, err := Sequence(HandLinking)
	require.NoError(t, err)
	assert.Len(t, full, 9)
	assert.Equal(t, Linking, full[1])

	auto, err := Sequence(AutoLinking)
	require.NoError(t, err)
	assert.Len(t, auto, 8)
	assert.Equal(t, -1, Index(auto, Linking))
	assert.Equal(t, Checking, auto[1])

	_, err = Sequence("Laser Linking")
	assert.ErrorIs(t, err, ErrUnknownLinkingType)
}

func TestSequenceReturnsCopy(t *testing.T) {
	seq, err := Sequence(RossoLinking)
	require.NoError(t, err)
	seq[0] = Dispatch

	again, _ := Sequence(RossoLinking)
	assert.Equal(t, Knitting, again[0])
}

func TestNextPrevious(t *testing.T) {
	seq, _ := Sequence(AutoLinking)

	next, ok := Next(seq, Knitting)
	assert.True(t, ok)
	assert.Equal(t, Checking, next)

	_, ok = Next(seq, Dispatch)
	assert.False(t, ok)

	_, ok = Next(seq, Linking)
	assert.False(t, ok, "linking is not part of the auto linking sequence")

	prev, ok := Previous(seq, Checking)
	assert.True(t, ok)
	assert.Equal(t, Knitting, prev)

	_, ok = Previous(seq, Knitting)
	assert.False(t, ok)
}

func TestParseLinkingType(t *testing.T) {
	lt, err := ParseLinkingType("auto-linking")
	require.NoError(t, err)
	assert.Equal(t, AutoLinking, lt)

	lt, err = ParseLinkingType("Rosso Linking")
	require.NoError(t, err)
	assert.Equal(t, RossoLinking, lt)

	_, err = ParseLinkingType("")
	assert.ErrorIs(t, err, ErrUnknownLinkingType)
}

func TestIsInspection(t *testing.T) {
	for _, f := range All {
		want := f == Checking || f == FinalChecking
		assert.Equal(t, want, f.IsInspection(), f.Label())
	}
}

func TestDescribe(t *testing.T) {
	seq, _ := Sequence(AutoLinking)
	assert.Equal(t, "Knitting → Checking", Describe(seq[:2]))
}
