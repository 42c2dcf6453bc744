package lang

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

// Supplier produces a value on demand. Namespace entries are suppliers so
// that values such as the current time are computed at lookup.
type Supplier func() Value

// Const returns a supplier that always yields v.
func Const(v Value) Supplier { return func() Value { return v } }

// Namespace resolves names to suppliers.
type Namespace interface {
	Get(name string) (Supplier, bool)
}

// Map is an insertion-ordered table of named suppliers. It serves both as
// the global namespace of a [Runtime] and as the payload of map values.
// A Map is safe for concurrent use.
type Map struct {
	mu      sync.RWMutex
	keys    []string
	entries map[string]Supplier
}

var _ Namespace = (*Map)(nil)

// NewMap returns an empty map.
func NewMap() *Map { return &Map{entries: map[string]Supplier{}} }

// Get returns the supplier bound to name.
func (m *Map) Get(name string) (Supplier, bool) {
	if m == nil {
		return nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.entries[name]

	return s, ok
}

// Lookup evaluates the supplier bound to name.
func (m *Map) Lookup(name string) (Value, bool) {
	s, ok := m.Get(name)
	if !ok || s == nil {
		return Null, ok
	}

	return s(), true
}

// Set binds name to s, keeping the original position of an existing name.
// A nil supplier binds null.
func (m *Map) Set(name string, s Supplier) *Map {
	if s == nil {
		s = Const(Null)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries == nil {
		m.entries = map[string]Supplier{}
	}

	if _, ok := m.entries[name]; !ok {
		m.keys = append(m.keys, name)
	}

	m.entries[name] = s

	return m
}

func (m *Map) SetValue(name string, v Value) *Map { return m.Set(name, Const(v)) }

func (m *Map) SetBool(name string, b bool) *Map { return m.SetValue(name, Bool(b)) }

func (m *Map) SetNumber(name string, n float64) *Map { return m.SetValue(name, Number(n)) }

func (m *Map) SetString(name, s string) *Map { return m.SetValue(name, String(s)) }

func (m *Map) SetFunc(name string, fn Func) *Map { return m.SetValue(name, NewFunction(fn)) }

func (m *Map) SetMap(name string, sub *Map) *Map { return m.SetValue(name, MapValue(sub)) }

// SetPath binds a dotted path such as "player.pos.x", creating or replacing
// intermediate maps as needed.
func (m *Map) SetPath(path string, s Supplier) *Map {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return m.Set(head, s)
	}

	sub := m.child(head)
	sub.SetPath(rest, s)

	return m
}

// child returns the map bound to name, binding a new one when name is absent
// or bound to something else.
func (m *Map) child(name string) *Map {
	if v, ok := m.Lookup(name); ok && v.IsMap() {
		return v.AsMap()
	}

	sub := NewMap()
	m.SetMap(name, sub)

	return sub
}

// Remove unbinds name.
func (m *Map) Remove(name string) *Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[name]; ok {
		delete(m.entries, name)
		m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == name })
	}

	return m
}

// Clear removes every binding.
func (m *Map) Clear() *Map {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys = nil
	m.entries = map[string]Supplier{}

	return m
}

// Len returns the number of bindings.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.keys)
}

// Keys yields the bound names in insertion order. The sequence is a snapshot
// and may be consumed while the map is modified.
func (m *Map) Keys() iter.Seq[string] {
	if m == nil {
		return func(func(string) bool) {}
	}

	m.mu.RLock()
	keys := slices.Clone(m.keys)
	m.mu.RUnlock()

	return slices.Values(keys)
}

// Merge copies every binding of src into m.
func (m *Map) Merge(src *Map) *Map {
	for k := range src.Keys() {
		if s, ok := src.Get(k); ok {
			m.Set(k, s)
		}
	}

	return m
}
