package tensor

import "fmt"

// Store owns the named tensors (weights, biases) of one graph. Insertion
// order is preserved so serialization is deterministic. Tensors themselves
// are immutable; Clone is therefore a shallow copy of the bookkeeping.
type Store struct {
	tensors map[string]*Tensor
	order   []string
}

// NewStore creates an empty tensor store.
func NewStore() *Store {
	return &Store{tensors: make(map[string]*Tensor)}
}

// Get returns the tensor with the given name, or false if absent.
func (s *Store) Get(name string) (*Tensor, bool) {
	t, ok := s.tensors[name]
	return t, ok
}

// Has reports whether a tensor with the given name exists.
func (s *Store) Has(name string) bool {
	_, ok := s.tensors[name]
	return ok
}

// Put inserts or replaces a tensor under its own name.
func (s *Store) Put(t *Tensor) {
	if _, ok := s.tensors[t.Name()]; !ok {
		s.order = append(s.order, t.Name())
	}
	s.tensors[t.Name()] = t
}

// Delete removes the tensor with the given name.
func (s *Store) Delete(name string) error {
	if _, ok := s.tensors[name]; !ok {
		return fmt.Errorf("tensor %q not in store", name)
	}
	delete(s.tensors, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns tensor names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tensors.
func (s *Store) Len() int { return len(s.tensors) }

// ParamCount returns the total number of elements across all tensors.
func (s *Store) ParamCount() int64 {
	var n int64
	for _, t := range s.tensors {
		n += int64(t.NumElements())
	}
	return n
}

// TotalBytes returns the total buffer size across all tensors.
func (s *Store) TotalBytes() int64 {
	var n int64
	for _, t := range s.tensors {
		n += int64(t.ByteSize())
	}
	return n
}

// Clone returns a store with the same tensors. The tensor values are shared
// (they are immutable); the map and order are copied.
func (s *Store) Clone() *Store {
	c := &Store{
		tensors: make(map[string]*Tensor, len(s.tensors)),
		order:   make([]string, len(s.order)),
	}
	for name, t := range s.tensors {
		c.tensors[name] = t
	}
	copy(c.order, s.order)
	return c
}
