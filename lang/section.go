package lang

import (
	"iter"
	"strings"
)

// Section is one node of the output of a run: a run of text rendered into
// output channel Index.
type Section struct {
	Index uint8
	Text  string
	Next  *Section
}

// All yields s and every following node.
func (s *Section) All() iter.Seq[*Section] {
	return func(yield func(*Section) bool) {
		for n := s; n != nil; n = n.Next {
			if !yield(n) {
				return
			}
		}
	}
}

// Len returns the number of nodes starting at s.
func (s *Section) Len() int {
	n := 0
	for range s.All() {
		n++
	}

	return n
}

// String concatenates the text of every node.
func (s *Section) String() string {
	var b strings.Builder
	for n := range s.All() {
		b.WriteString(n.Text)
	}

	return b.String()
}

// Lookup concatenates the text of every node rendered into index.
func (s *Section) Lookup(index uint8) (string, bool) {
	var (
		b     strings.Builder
		found bool
	)

	for n := range s.All() {
		if n.Index == index {
			b.WriteString(n.Text)

			found = true
		}
	}

	return b.String(), found
}

// Filter returns a new list holding only the nodes whose index is in keep.
// An empty keep returns s unchanged.
func (s *Section) Filter(keep ...uint8) *Section {
	if len(keep) == 0 {
		return s
	}

	var head, tail *Section

	for n := range s.All() {
		for _, k := range keep {
			if n.Index != k {
				continue
			}

			c := &Section{Index: n.Index, Text: n.Text}
			if tail == nil {
				head = c
			} else {
				tail.Next = c
			}

			tail = c

			break
		}
	}

	return head
}
