// Package store is a client-side cache of a user's bookmarks, tags and
// categories, kept in sync with the API through optimistic mutations.
package store

import "sync"

// Readable is a value that can be read and observed.
type Readable[T any] interface {
	Get() T
	// Subscribe calls fn with the current value and again after every change.
	// The returned func removes the subscription.
	Subscribe(fn func(T)) (unsubscribe func())
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Value owns a single value and notifies subscribers, in subscription order,
// after each change. Subscribers must not write to the Value they observe.
type Value[T any] struct {
	notify sync.Mutex
	mu     sync.Mutex
	v      T
	subs   []subscriber[T]
	nextID int
}

func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.v
}

func (v *Value[T]) Set(x T) {
	v.Update(func(T) T { return x })
}

// Update replaces the value with fn(current) and returns the new value.
func (v *Value[T]) Update(fn func(T) T) T {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	v.v = fn(v.v)
	cur := v.v
	subs := append([]subscriber[T](nil), v.subs...)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(cur)
	}
	return cur
}

func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs = append(v.subs, subscriber[T]{id: id, fn: fn})
	cur := v.v
	v.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, s := range v.subs {
				if s.id == id {
					v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Computed is a read-only value recomputed whenever one of its sources changes.
type Computed[T any] struct {
	val   *Value[T]
	mu    sync.Mutex
	stops []func()
}

func (c *Computed[T]) Get() T {
	return c.val.Get()
}

func (c *Computed[T]) Subscribe(fn func(T)) func() {
	return c.val.Subscribe(fn)
}

// Close detaches c from its sources. c keeps its last value.
func (c *Computed[T]) Close() {
	for _, stop := range c.stops {
		stop()
	}
}

// Derive returns a view of src transformed by fn. fn must be pure.
func Derive[A, B any](src Readable[A], fn func(A) B) *Computed[B] {
	var zero B
	c := &Computed[B]{val: NewValue(zero)}
	recompute := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.val.Set(fn(src.Get()))
	}
	c.stops = append(c.stops, src.Subscribe(func(A) { recompute() }))
	return c
}

// Derive2 combines two sources with fn. fn must be pure.
func Derive2[A, B, C any](a Readable[A], b Readable[B], fn func(A, B) C) *Computed[C] {
	var zero C
	c := &Computed[C]{val: NewValue(zero)}
	recompute := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.val.Set(fn(a.Get(), b.Get()))
	}
	c.stops = append(c.stops,
		a.Subscribe(func(A) { recompute() }),
		b.Subscribe(func(B) { recompute() }),
	)
	return c
}
