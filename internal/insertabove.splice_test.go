package internal

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpliceWriter_PlainOutput(t *testing.T) {
	w := NewSpliceWriter()
	_, _ = w.WriteString("hello ")
	_, _ = w.Write([]byte("world"))

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestSpliceWriter_DeferredRunsAfterLaterWrites(t *testing.T) {
	w := NewSpliceWriter()
	collected := ""

	_, _ = w.WriteString("<head>")
	_, _ = w.WriteString(w.Defer(func() (string, error) { return collected, nil }))
	_, _ = w.WriteString("</head><body>")
	collected = "late"
	_, _ = w.WriteString("</body>")

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "<head>late</head><body></body>", out)
}

func TestSpliceWriter_MarkerThroughBuffer(t *testing.T) {
	w := NewSpliceWriter()
	collected := ""

	// Output rendered into a separate buffer first, as block.Super does.
	var inner bytes.Buffer
	inner.WriteString("[")
	inner.WriteString(w.Defer(func() (string, error) { return collected, nil }))
	inner.WriteString("]")
	_, _ = w.WriteString(strings.ToUpper(inner.String()))
	collected = "late"

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "[late]", out)
}

func TestSpliceWriter_SlotsRunInReservationOrder(t *testing.T) {
	w := NewSpliceWriter()
	var calls []int

	for i := 0; i < 3; i++ {
		i := i
		marker := w.Defer(func() (string, error) {
			calls = append(calls, i)
			return string(rune('a' + i)), nil
		})
		_, _ = w.WriteString(marker + "|")
	}
	assert.Equal(t, 3, w.Deferred())

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "a|b|c|", out)
	assert.Equal(t, []int{0, 1, 2}, calls)
}

func TestSpliceWriter_AdjacentSlots(t *testing.T) {
	w := NewSpliceWriter()
	_, _ = w.WriteString(w.Defer(func() (string, error) { return "x", nil }))
	_, _ = w.WriteString(w.Defer(func() (string, error) { return "y", nil }))

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestSpliceWriter_NestedMarkers(t *testing.T) {
	w := NewSpliceWriter()
	inner := w.Defer(func() (string, error) { return "inner", nil })
	_, _ = w.WriteString(w.Defer(func() (string, error) { return "<" + inner + ">", nil }))

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "<inner>", out)
}

func TestSpliceWriter_DroppedMarkerStillRuns(t *testing.T) {
	w := NewSpliceWriter()
	ran := false
	w.Defer(func() (string, error) {
		ran = true
		return "lost", nil
	})
	_, _ = w.WriteString("body")

	out, err := w.Splice()
	require.NoError(t, err)
	assert.Equal(t, "body", out)
	assert.True(t, ran)
}

func TestSpliceWriter_ErrorStopsSplice(t *testing.T) {
	w := NewSpliceWriter()
	boom := errors.New("boom")
	second := false

	_, _ = w.WriteString("before")
	_, _ = w.WriteString(w.Defer(func() (string, error) { return "", boom }))
	_, _ = w.WriteString(w.Defer(func() (string, error) {
		second = true
		return "never", nil
	}))

	out, err := w.Splice()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out)
	assert.False(t, second)
}
