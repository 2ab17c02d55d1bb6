package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Resolver computes a deferred signal value.
type Resolver[T any] func(ctx context.Context) (T, error)

// Lazy is either a materialized value or a deferred computation of one.
// A deferred Lazy runs its resolver at most once; copies share the outcome.
type Lazy[T any] struct {
	materialized Optional[T]
	deferred     *deferred[T]
}

type deferred[T any] struct {
	resolve  Resolver[T]
	once     sync.Once
	resolved atomic.Bool
	result   Optional[T]
}

// Materialized wraps an already computed value.
func Materialized[T any](v T) Lazy[T] {
	return Lazy[T]{materialized: Some(v)}
}

// Unknown returns a materialized Lazy with no value.
func Unknown[T any]() Lazy[T] {
	return Lazy[T]{}
}

// Defer wraps fn so it only runs when the value is first resolved.
func Defer[T any](fn Resolver[T]) Lazy[T] {
	if fn == nil {
		return Unknown[T]()
	}
	return Lazy[T]{deferred: &deferred[T]{resolve: fn}}
}

// IsDeferred reports whether the value still comes from a resolver.
func (l Lazy[T]) IsDeferred() bool {
	return l.deferred != nil
}

// Resolve returns the value, running the resolver on first use. A resolver
// error or panic yields an absent value, never an error.
func (l Lazy[T]) Resolve(ctx context.Context) Optional[T] {
	d := l.deferred
	if d == nil {
		return l.materialized
	}
	d.once.Do(func() {
		defer d.resolved.Store(true)
		defer func() {
			if recover() != nil {
				d.result = None[T]()
			}
		}()
		v, err := d.resolve(ctx)
		if err == nil {
			d.result = Some(v)
		}
	})
	return d.result
}

// Resolved reports whether Resolve would return without running a resolver.
func (l Lazy[T]) Resolved() bool {
	return l.deferred == nil || l.deferred.resolved.Load()
}

// Peek returns the value without running a pending resolver.
func (l Lazy[T]) Peek() Optional[T] {
	d := l.deferred
	if d == nil {
		return l.materialized
	}
	if !d.resolved.Load() {
		return None[T]()
	}
	return d.result
}

func (l Lazy[T]) MarshalJSON() ([]byte, error) {
	return l.Peek().MarshalJSON()
}

func (l *Lazy[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = Unknown[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = Materialized(v)
	return nil
}
