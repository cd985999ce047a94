package insertabove

import (
	"testing"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AppendAndBucket(t *testing.T) {
	s := newSession(NewSequencer(), nil, nil, nil, false)

	first := s.Append("js", "a.js")
	s.Append("css", "a.css")
	s.Append("js", "b.js")

	assert.Equal(t, uint64(0), first.Order)
	assert.Equal(t, 2, s.Len("js"))
	assert.Equal(t, []string{"css", "js"}, s.BucketNames())

	items := s.Bucket("js")
	require.Len(t, items, 2)
	assert.Equal(t, "a.js", items[0].Payload)
	assert.Equal(t, "b.js", items[1].Payload)
}

func TestSession_BucketIsACopy(t *testing.T) {
	s := NewSession()
	s.Append("x", "one")

	items := s.Bucket("x")
	items[0].Payload = "changed"

	again := s.Bucket("x")
	assert.Equal(t, "one", again[0].Payload)
	assert.Equal(t, items[0].Order, again[0].Order)
}

func TestSession_EmptyBucket(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.Bucket("never"))
	assert.Equal(t, 0, s.Len("never"))
	assert.Empty(t, s.BucketNames())
}

func TestSession_Defaults(t *testing.T) {
	s := NewSession()
	assert.Same(t, DefaultMediaFormatter(), s.Formatter())
	assert.False(t, s.Debug())
	assert.Zero(t, s.Elapsed())
}

func TestSession_Timing(t *testing.T) {
	t.Run("debug off records nothing", func(t *testing.T) {
		s := newSession(nil, nil, nil, nil, false)
		start := s.start()
		assert.True(t, start.IsZero())
		s.stop(start)
		assert.Zero(t, s.Elapsed())
	})

	t.Run("debug on accumulates", func(t *testing.T) {
		s := newSession(nil, nil, nil, nil, true)
		s.RecordElapsed(2 * time.Millisecond)
		s.RecordElapsed(3 * time.Millisecond)
		assert.Equal(t, 5*time.Millisecond, s.Elapsed())

		start := s.start()
		assert.False(t, start.IsZero())
		s.stop(start)
		assert.GreaterOrEqual(t, s.Elapsed(), 5*time.Millisecond)
	})
}

func TestSession_EnterHandler(t *testing.T) {
	s := NewSession()
	assert.True(t, s.enterHandler())
	assert.False(t, s.enterHandler())
}

func TestSessionFrom(t *testing.T) {
	t.Run("returns the stored session", func(t *testing.T) {
		s := NewSession()
		ctx := &pongo2.ExecutionContext{Public: pongo2.Context{SessionContextKey: s}}
		assert.Same(t, s, SessionFrom(ctx))
	})

	t.Run("creates one on first access", func(t *testing.T) {
		ctx := &pongo2.ExecutionContext{Public: pongo2.Context{}}
		s := SessionFrom(ctx)
		require.NotNil(t, s)
		assert.Same(t, s, SessionFrom(ctx))
		assert.Same(t, s, ctx.Public[SessionContextKey])
	})
}
