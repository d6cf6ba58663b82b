package store

import (
	"context"
	"sync"
)

// creates remembers every entity added under a local id and what the server
// answered for it, so later mutations and reverts can use the server's id.
type creates[T any] struct {
	idOf func(T) string

	mu   sync.Mutex
	byID map[string]*created[T]
}

type created[T any] struct {
	done chan struct{}
	// item is nil when the create failed. Only read after done is closed.
	item *T
}

func newCreates[T any](idOf func(T) string) *creates[T] {
	return &creates[T]{idOf: idOf, byID: make(map[string]*created[T])}
}

func (c *creates[T]) track(localID string) *created[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &created[T]{done: make(chan struct{})}
	c.byID[localID] = p
	return p
}

// finish records the server's copy, or nil if the create failed, and wakes
// every mutation waiting on it.
func (c *creates[T]) finish(p *created[T], item *T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	p.item = item
	close(p.done)
}

type createState int

const (
	untracked createState = iota
	inFlight
	settled
)

// lookup reports where the create behind id stands. item is the server's copy
// once settled, or nil if the create failed.
func (c *creates[T]) lookup(id string) (item *T, state createState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byID[id]
	if !ok {
		return nil, untracked
	}
	select {
	case <-p.done:
		return p.item, settled
	default:
		return nil, inFlight
	}
}

// aliases lists the ids an entry may currently carry in the collection: the
// given one and, once known, the server's id for it.
func (c *creates[T]) aliases(id string) []string {
	if item, state := c.lookup(id); state == settled && item != nil {
		return []string{id, c.idOf(*item)}
	}
	return []string{id}
}

// resolve maps id to the id the server knows, waiting for an in-flight create.
// ok is false when the create failed and the server never stored the entity.
func (c *creates[T]) resolve(ctx context.Context, id string) (serverID string, ok bool, err error) {
	c.mu.Lock()
	p, tracked := c.byID[id]
	c.mu.Unlock()
	if !tracked {
		return id, true, nil
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	if p.item == nil {
		return "", false, nil
	}
	return c.idOf(*p.item), true, nil
}

// resolveAll resolves ids in order, dropping those whose create failed.
func (c *creates[T]) resolveAll(ctx context.Context, ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		serverID, ok, err := c.resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, serverID)
		}
	}
	return out, nil
}

// rebase rewrites a restored snapshot: local entries whose create has settled
// become the server's copy, or disappear if the create failed.
func (c *creates[T]) rebase(items []T) []T {
	present := make(map[string]bool, len(items))
	for _, it := range items {
		present[c.idOf(it)] = true
	}

	out := items[:0]
	for _, it := range items {
		item, state := c.lookup(c.idOf(it))
		switch {
		case state != settled:
			out = append(out, it)
		case item == nil:
		case !present[c.idOf(*item)]:
			present[c.idOf(*item)] = true
			out = append(out, *item)
		}
	}
	return out
}
