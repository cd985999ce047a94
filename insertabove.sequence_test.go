package insertabove

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_Next(t *testing.T) {
	seq := NewSequencer()

	assert.Equal(t, uint64(0), seq.Peek())
	assert.Equal(t, uint64(0), seq.Next())
	assert.Equal(t, uint64(1), seq.Next())
	assert.Equal(t, uint64(2), seq.Next())
	assert.Equal(t, uint64(3), seq.Peek())

	seq.Reset()
	assert.Equal(t, uint64(0), seq.Next())
}

func TestSequencer_ConcurrentStampsAreUnique(t *testing.T) {
	seq := NewSequencer()
	const workers, perWorker = 8, 500

	var (
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, seq.Next())
			}
			mu.Lock()
			for _, v := range local {
				seen[v] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), seq.Peek())
}

func TestNewOrderedItem(t *testing.T) {
	seq := NewSequencer()

	a := NewOrderedItem(seq, "a")
	b := NewOrderedItem(seq, "b")
	assert.Less(t, a.Order, b.Order)
	assert.Equal(t, "a", a.Payload)

	t.Run("nil sequencer uses the default one", func(t *testing.T) {
		before := DefaultSequencer().Peek()
		item := NewOrderedItem[any](nil, 1)
		assert.GreaterOrEqual(t, item.Order, before)
	})
}

func TestOrderedItem_Equal(t *testing.T) {
	seq := NewSequencer()

	t.Run("same payload different stamps", func(t *testing.T) {
		a := NewOrderedItem(seq, "js/app.js")
		b := NewOrderedItem(seq, "js/app.js")
		assert.True(t, a.Equal(b))
		assert.Equal(t, 0, CompareOrderedItems(a, b))
	})

	t.Run("different payloads order by stamp", func(t *testing.T) {
		a := NewOrderedItem(seq, "x")
		b := NewOrderedItem(seq, "y")
		assert.False(t, a.Equal(b))
		assert.Equal(t, -1, CompareOrderedItems(a, b))
		assert.Equal(t, 1, CompareOrderedItems(b, a))
	})

	t.Run("structured payloads compare deeply", func(t *testing.T) {
		a := NewOrderedItem[any](seq, map[string]int{"a": 1})
		b := NewOrderedItem[any](seq, map[string]int{"a": 1})
		c := NewOrderedItem[any](seq, "a")
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})
}

func TestSortOrderedItems(t *testing.T) {
	items := []OrderedItem[string]{
		{Payload: "c", Order: 7},
		{Payload: "a", Order: 1},
		{Payload: "b", Order: 4},
	}
	SortOrderedItems(items)

	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.Payload)
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}
