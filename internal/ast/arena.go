package ast

import (
	"fmt"
	"iter"

	"fortio.org/safecast"
)

// Arena stores values addressed by a typed 1-based id. The zero id is
// reserved as "none" and never handed out.
type Arena[ID ~uint32, T any] struct {
	data []T
}

func NewArena[ID ~uint32, T any](capHint uint) *Arena[ID, T] {
	return &Arena[ID, T]{data: make([]T, 0, capHint)}
}

// Allocate appends value and returns its id.
func (a *Arena[ID, T]) Allocate(value T) ID {
	a.data = append(a.data, value)
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("ast: arena overflow: %w", err))
	}
	return ID(n)
}

// Get returns nil for the zero id and for ids never allocated.
func (a *Arena[ID, T]) Get(id ID) *T {
	if id == 0 || uint64(id) > uint64(len(a.data)) {
		return nil
	}
	return &a.data[id-1]
}

func (a *Arena[ID, T]) Len() int { return len(a.data) }

// All yields every allocated value in id order.
func (a *Arena[ID, T]) All() iter.Seq2[ID, *T] {
	return func(yield func(ID, *T) bool) {
		for i := range a.data {
			if !yield(ID(i+1), &a.data[i]) {
				return
			}
		}
	}
}
