package internal

// OrderedMap is a string-keyed map that remembers insertion order.
// It is not safe for concurrent use.
type OrderedMap[T any] struct {
	m     map[string]T
	order []string
}

// NewOrderedMap creates an empty map.
func NewOrderedMap[T any]() *OrderedMap[T] {
	return &OrderedMap[T]{
		m: make(map[string]T),
	}
}

// Set stores value under key. A key keeps the position of its first insertion.
func (m *OrderedMap[T]) Set(key string, value T) {
	if _, exists := m.m[key]; !exists {
		m.order = append(m.order, key)
	}
	m.m[key] = value
}

// Add stores value only when key is new and reports whether it did.
func (m *OrderedMap[T]) Add(key string, value T) bool {
	if _, exists := m.m[key]; exists {
		return false
	}
	m.order = append(m.order, key)
	m.m[key] = value
	return true
}

// Get returns the value stored under key.
func (m *OrderedMap[T]) Get(key string) (T, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[T]) Has(key string) bool {
	_, ok := m.m[key]
	return ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[T]) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Values returns the values in key insertion order.
func (m *OrderedMap[T]) Values() []T {
	out := make([]T, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.m[k])
	}
	return out
}

// Len returns the number of keys.
func (m *OrderedMap[T]) Len() int {
	return len(m.order)
}
