package insertabove

import (
	"maps"
	"slices"
	"time"

	"github.com/flosch/pongo2/v6"
	"go.uber.org/zap"

	"github.com/itsatony/go-insertabove/internal"
)

// Session is the per-render store of buckets. Deposit points append to it and
// output containers read from it. A session belongs to exactly one render and
// is not safe for concurrent use.
type Session struct {
	seq       *Sequencer
	formatter *MediaFormatter
	logger    *zap.Logger
	metrics   *Metrics
	debug     bool

	buckets  map[string][]OrderedItem[any]
	elapsed  time.Duration
	handlers int

	// splice is set while a page handler renders its body.
	splice *internal.SpliceWriter
}

// NewSession creates a session with the default sequencer and media formatter.
func NewSession() *Session {
	return newSession(nil, nil, nil, nil, false)
}

func newSession(seq *Sequencer, formatter *MediaFormatter, logger *zap.Logger, metrics *Metrics, debug bool) *Session {
	if seq == nil {
		seq = defaultSequencer
	}
	if formatter == nil {
		formatter = DefaultMediaFormatter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		seq:       seq,
		formatter: formatter,
		logger:    logger,
		metrics:   metrics,
		debug:     debug,
		buckets:   make(map[string][]OrderedItem[any]),
	}
}

// SessionFrom returns the session of the render ctx belongs to, creating and
// storing a default one on first access. Every child context of a render
// shares the same public context, so all tags of one render see one session.
func SessionFrom(ctx *pongo2.ExecutionContext) *Session {
	if s, ok := ctx.Public[SessionContextKey].(*Session); ok {
		return s
	}
	s := NewSession()
	ctx.Public[SessionContextKey] = s
	return s
}

// Append stamps payload with the next sequence number and adds it to bucket.
func (s *Session) Append(bucket string, payload any) OrderedItem[any] {
	item := NewOrderedItem(s.seq, payload)
	s.buckets[bucket] = append(s.buckets[bucket], item)
	s.metrics.observeDeposit()
	return item
}

// Bucket returns a copy of the items in bucket, sorted by insertion sequence.
// A bucket that was never written is empty.
func (s *Session) Bucket(bucket string) []OrderedItem[any] {
	items := slices.Clone(s.buckets[bucket])
	SortOrderedItems(items)
	return items
}

// BucketNames returns the names of all written buckets in sorted order.
func (s *Session) BucketNames() []string {
	return slices.Sorted(maps.Keys(s.buckets))
}

// Len returns the number of items in bucket.
func (s *Session) Len(bucket string) int {
	return len(s.buckets[bucket])
}

// Formatter returns the media formatter used by this session's containers.
func (s *Session) Formatter() *MediaFormatter {
	return s.formatter
}

// Debug reports whether timing is recorded.
func (s *Session) Debug() bool {
	return s.debug
}

// RecordElapsed adds d to the accumulated insert tag time.
func (s *Session) RecordElapsed(d time.Duration) {
	s.elapsed += d
}

// Elapsed returns the accumulated insert tag time, zero when nothing was recorded.
func (s *Session) Elapsed() time.Duration {
	return s.elapsed
}

// enterHandler counts a page handler execution and reports whether it is the
// first one of this render.
func (s *Session) enterHandler() bool {
	s.handlers++
	return s.handlers == 1
}

// start reads the clock only when debug timing is on.
func (s *Session) start() time.Time {
	if !s.debug {
		return time.Time{}
	}
	return time.Now()
}

func (s *Session) stop(start time.Time) {
	if !s.debug {
		return
	}
	s.RecordElapsed(time.Since(start))
}
