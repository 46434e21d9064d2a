package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulator_FlushJoinsPagesWithSeparator(t *testing.T) {
	acc := NewAccumulator()
	acc.AddPage("unit-1", "A", "batches/b/pdf_1.pdf")
	acc.AddPage("unit-1", "B", "batches/b/pdf_2.pdf")

	text, refs, ok := acc.Flush("unit-1")

	require.True(t, ok)
	assert.Equal(t, "A\n\n--- PAGE BREAK ---\n\nB", text)
	assert.Equal(t, []string{"batches/b/pdf_1.pdf", "batches/b/pdf_2.pdf"}, refs)
}

func TestAccumulator_FlushClearsState(t *testing.T) {
	acc := NewAccumulator()
	acc.AddPage("unit-1", "A", "a.pdf")
	_, _, ok := acc.Flush("unit-1")
	require.True(t, ok)

	assert.Equal(t, 0, acc.PageCount("unit-1"))

	// A later AddPage starts a fresh unit
	count := acc.AddPage("unit-1", "C", "c.pdf")
	assert.Equal(t, 1, count)

	text, _, ok := acc.Flush("unit-1")
	require.True(t, ok)
	assert.Equal(t, "C", text)
}

func TestAccumulator_SinglePageFlushesUnchanged(t *testing.T) {
	acc := NewAccumulator()
	acc.AddPage("unit-1", "only page text", "solo.pdf")

	text, refs, ok := acc.Flush("unit-1")

	require.True(t, ok)
	assert.Equal(t, "only page text", text)
	assert.Equal(t, []string{"solo.pdf"}, refs)
}

func TestAccumulator_FlushEmptyUnit(t *testing.T) {
	acc := NewAccumulator()

	_, _, ok := acc.Flush("never-seen")

	assert.False(t, ok)
}

func TestAccumulator_Discard(t *testing.T) {
	acc := NewAccumulator()
	acc.AddPage("unit-1", "A", "a.pdf")
	acc.Discard("unit-1")

	_, _, ok := acc.Flush("unit-1")
	assert.False(t, ok)
}
