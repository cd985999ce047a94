package insertabove

import (
	"cmp"
	"reflect"
	"slices"
	"sync/atomic"
)

// Sequencer hands out strictly increasing order stamps.
// It is safe for concurrent use; renders running in parallel may share one.
type Sequencer struct {
	next atomic.Uint64
}

// NewSequencer creates a sequencer starting at zero.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

var defaultSequencer = NewSequencer()

// DefaultSequencer returns the process-wide sequencer used when an engine
// or session is not given its own.
func DefaultSequencer() *Sequencer {
	return defaultSequencer
}

// Next returns the current value and advances the counter in one step.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1) - 1
}

// Peek returns the value the next call to Next will hand out.
func (s *Sequencer) Peek() uint64 {
	return s.next.Load()
}

// Reset sets the counter back to zero.
func (s *Sequencer) Reset() {
	s.next.Store(0)
}

// OrderedItem is a payload stamped with its insertion sequence number.
type OrderedItem[T any] struct {
	Payload T
	Order   uint64
}

// NewOrderedItem stamps payload with the next value of seq.
func NewOrderedItem[T any](seq *Sequencer, payload T) OrderedItem[T] {
	if seq == nil {
		seq = defaultSequencer
	}
	return OrderedItem[T]{Payload: payload, Order: seq.Next()}
}

// Equal reports whether both items carry the same payload. The stamp is ignored.
func (i OrderedItem[T]) Equal(o OrderedItem[T]) bool {
	return payloadEqual(i.Payload, o.Payload)
}

// CompareOrderedItems returns 0 for items with equal payloads and otherwise
// orders them by insertion sequence.
func CompareOrderedItems[T any](a, b OrderedItem[T]) int {
	if a.Equal(b) {
		return 0
	}
	return cmp.Compare(a.Order, b.Order)
}

// SortOrderedItems sorts items by insertion sequence, keeping ties in place.
func SortOrderedItems[T any](items []OrderedItem[T]) {
	slices.SortStableFunc(items, func(a, b OrderedItem[T]) int {
		return cmp.Compare(a.Order, b.Order)
	})
}

func payloadEqual(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}
