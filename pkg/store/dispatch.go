package store

import (
	"sync"

	"github.com/dataspace/mirror/pkg/logger"
	"github.com/dataspace/mirror/pkg/models"
)

// Dispatcher is what action creators need from the state container.
type Dispatcher interface {
	Dispatch(action *Action) *Store
	State() *Store
}

// Context owns the current Store. Dispatches are applied one at a time, so
// concurrent callers never overwrite each other's changes.
type Context struct {
	mu    sync.Mutex
	state *Store

	subsMu sync.RWMutex
	subs   map[int]func(*Store)
	nextID int

	logger logger.Logger
}

var _ Dispatcher = (*Context)(nil)

func NewContext(initial *Store, log logger.Logger) *Context {
	if initial == nil {
		initial = New()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Context{state: initial, subs: map[int]func(*Store){}, logger: log}
}

func (c *Context) State() *Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch reduces action into the current state and returns the result.
// Subscribers are notified when the state changed.
func (c *Context) Dispatch(action *Action) *Store {
	c.mu.Lock()
	prev := c.state
	next := Reduce(prev, action)
	c.state = next
	c.mu.Unlock()

	if next == prev {
		return next
	}
	if action != nil {
		c.logger.Debug("dispatched", "type", string(action.Type), "items", len(action.Payload), "version", next.Version)
	}

	c.subsMu.RLock()
	subs := make([]func(*Store), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.RUnlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to receive every new state. The returned function
// removes the subscription.
func (c *Context) Subscribe(fn func(*Store)) (cancel func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

// DispatchCreate dispatches CREATE for item when err is nil and hands both
// back unchanged, so it can wrap the result of a network call directly.
func DispatchCreate[T models.Entity](d Dispatcher, item T, err error) (T, error) {
	return dispatchOne(d, ActionCreate, item, err)
}

func DispatchUpdate[T models.Entity](d Dispatcher, item T, err error) (T, error) {
	return dispatchOne(d, ActionUpdate, item, err)
}

func DispatchDelete[T models.Entity](d Dispatcher, item T, err error) (T, error) {
	return dispatchOne(d, ActionDelete, item, err)
}

// DispatchLoad dispatches LOAD for a batch. An empty batch dispatches
// nothing.
func DispatchLoad[T models.Entity](d Dispatcher, items []T, err error) ([]T, error) {
	if err != nil || len(items) == 0 {
		return items, err
	}
	payload := make([]models.Entity, len(items))
	for i, item := range items {
		payload[i] = item
	}
	d.Dispatch(NewAction(ActionLoad, payload...))
	return items, nil
}

func dispatchOne[T models.Entity](d Dispatcher, t ActionType, item T, err error) (T, error) {
	if err != nil {
		return item, err
	}
	d.Dispatch(NewAction(t, item))
	return item, nil
}
