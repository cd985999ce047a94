package internal

import (
	"strconv"
	"strings"
)

// Marker delimiters. They contain no letters so case filters and HTML
// escaping leave them intact.
const (
	markerOpen  = "\x00\x1a"
	markerClose = "\x1a\x00"
)

// RenderFunc produces deferred output.
type RenderFunc func() (string, error)

// SpliceWriter buffers output. Deferred renders are represented by markers
// that Splice replaces afterwards, so a marker can travel through any
// intermediate buffer before it reaches the writer.
type SpliceWriter struct {
	buf   strings.Builder
	slots []slot
}

type slot struct {
	marker string
	render RenderFunc
}

// NewSpliceWriter creates an empty writer.
func NewSpliceWriter() *SpliceWriter {
	return &SpliceWriter{}
}

// Write implements io.Writer.
func (w *SpliceWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

// WriteString implements io.StringWriter.
func (w *SpliceWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// Defer registers render and returns the marker that stands for its output.
// The caller writes the marker wherever the output belongs.
func (w *SpliceWriter) Defer(render RenderFunc) string {
	marker := markerOpen + strconv.Itoa(len(w.slots)) + markerClose
	w.slots = append(w.slots, slot{marker: marker, render: render})
	return marker
}

// Deferred returns the number of registered renders.
func (w *SpliceWriter) Deferred() int {
	return len(w.slots)
}

// Splice runs every deferred render in registration order and returns the
// buffered output with each marker replaced. A render whose marker was
// dropped still runs. The first error stops splicing and no output is returned.
func (w *SpliceWriter) Splice() (string, error) {
	pairs := make([]string, 0, 2*len(w.slots))
	for _, s := range w.slots {
		out, err := s.render()
		if err != nil {
			return "", err
		}
		pairs = append(pairs, s.marker, out)
	}
	w.slots = nil

	out := w.buf.String()
	if len(pairs) == 0 {
		return out, nil
	}

	// Deferred output may itself carry markers, e.g. a container inside a
	// deposited body.
	replacer := strings.NewReplacer(pairs...)
	for i := 0; i <= len(pairs)/2 && strings.Contains(out, markerOpen); i++ {
		out = replacer.Replace(out)
	}
	return out, nil
}

// String returns the buffered output with markers for pending renders.
func (w *SpliceWriter) String() string {
	return w.buf.String()
}
