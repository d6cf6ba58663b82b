package store

import (
	"context"
	"slices"
	"sync"
)

// Settle adjusts the collection once a commit has succeeded, for example to
// swap an optimistic entry for the one the server returned.
type Settle[T any] func(items []T) []T

// CommitFunc performs the remote half of a mutation. A nil Settle leaves the
// optimistic state in place.
type CommitFunc[T any] func(ctx context.Context) (Settle[T], error)

// Commit adapts a call with no result to a CommitFunc.
func Commit[T any](call func(ctx context.Context) error) CommitFunc[T] {
	return func(ctx context.Context) (Settle[T], error) {
		return nil, call(ctx)
	}
}

// Collection is an ordered list that is only written through Replace and Mutate.
// Slices handed to subscribers are never modified afterwards.
type Collection[T any] struct {
	mu    sync.Mutex
	items *Value[[]T]
	// onRevert, if set, adjusts a snapshot before it is restored.
	onRevert func(items []T) []T
}

func NewCollection[T any]() *Collection[T] {
	return &Collection[T]{items: NewValue([]T{})}
}

func (c *Collection[T]) Get() []T {
	return c.items.Get()
}

func (c *Collection[T]) Subscribe(fn func([]T)) func() {
	return c.items.Subscribe(fn)
}

// Replace applies a local-only change.
func (c *Collection[T]) Replace(fn func(items []T) []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Update(func(cur []T) []T { return nonNil(fn(slices.Clone(cur))) })
}

// Mutate applies the optimistic change at once, then runs commit in the
// background. If commit fails the collection is restored to what it held
// before apply, with entries created meanwhile carrying their server ids. The channel receives commit's error and is then closed.
func (c *Collection[T]) Mutate(ctx context.Context, apply func(items []T) []T, commit CommitFunc[T]) <-chan error {
	c.mu.Lock()
	snapshot := c.items.Get()
	c.items.Set(nonNil(apply(slices.Clone(snapshot))))
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)

		settle, err := commit(ctx)

		c.mu.Lock()
		switch {
		case err != nil:
			restored := snapshot
			if c.onRevert != nil {
				restored = nonNil(c.onRevert(slices.Clone(snapshot)))
			}
			c.items.Set(restored)
		case settle != nil:
			c.items.Update(func(cur []T) []T { return nonNil(settle(slices.Clone(cur))) })
		}
		c.mu.Unlock()

		done <- err
	}()
	return done
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// indexOf returns the index of the first item with the given id, or -1.
func indexOf[T any](items []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(items, func(it T) bool { return idOf(it) == id })
}

func without[T any](items []T, ids []string, idOf func(T) string) []T {
	return slices.DeleteFunc(items, func(it T) bool { return slices.Contains(ids, idOf(it)) })
}
