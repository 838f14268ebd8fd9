package query

// Store is a keyed value store an optimistic update can be applied to
type Store[K comparable, V any] interface {
	Get(k K) (V, bool)
	Set(k K, v V)
	Delete(k K)
}

// updater is implemented by stores that can read-modify-write atomically.
type updater[K comparable, V any] interface {
	Update(k K, fn func(current V, ok bool) V) V
}

// Snapshot is the value held for a key before an optimistic write
type Snapshot[V any] struct {
	Value   V
	Present bool
}

// Optimistic runs the snapshot / apply / reconcile protocol for one kind of
// mutable entry:
//
//  1. Snapshot captures the current value for the key.
//  2. Apply writes the provisional value so readers see it immediately.
//  3. Reconcile either re-applies the confirmed value (err == nil) or
//     restores the snapshot exactly (err != nil).
//
// Each mutation owns its snapshot; snapshots are not queued or merged. When
// two mutations on the same key overlap, the second snapshot already contains
// the first mutation's provisional value, and a failure of the first restores
// a snapshot that predates the second. The last restore wins and the second
// mutation's outcome is lost from the cache until the next refetch.
type Optimistic[K comparable, V any] struct {
	store Store[K, V]
}

// NewOptimistic returns an optimistic updater over store.
func NewOptimistic[K comparable, V any](store Store[K, V]) *Optimistic[K, V] {
	return &Optimistic[K, V]{store: store}
}

// Snapshot captures the current value for k.
func (o *Optimistic[K, V]) Snapshot(k K) Snapshot[V] {
	v, ok := o.store.Get(k)
	return Snapshot[V]{Value: v, Present: ok}
}

// Apply writes fn(current) for k and returns the written value.
func (o *Optimistic[K, V]) Apply(k K, fn func(current V, ok bool) V) V {
	if u, ok := o.store.(updater[K, V]); ok {
		return u.Update(k, fn)
	}
	current, ok := o.store.Get(k)
	next := fn(current, ok)
	o.store.Set(k, next)
	return next
}

// Reconcile settles a mutation. On success confirm, if non-nil, is applied
// again to the current value. On failure the snapshot is restored; an absent
// snapshot removes the entry.
func (o *Optimistic[K, V]) Reconcile(k K, snap Snapshot[V], err error, confirm func(current V, ok bool) V) {
	if err != nil {
		o.Restore(k, snap)
		return
	}
	if confirm != nil {
		o.Apply(k, confirm)
	}
}

// Restore puts snap back for k.
func (o *Optimistic[K, V]) Restore(k K, snap Snapshot[V]) {
	if snap.Present {
		o.store.Set(k, snap.Value)
		return
	}
	o.store.Delete(k)
}

// typedStore exposes the entries of a Client holding values of type V.
type typedStore[V any] struct {
	c *Client
}

// Typed adapts c to a Store of V values.
func Typed[V any](c *Client) Store[Key, V] {
	return typedStore[V]{c: c}
}

func (s typedStore[V]) Get(k Key) (V, bool) {
	return GetData[V](s.c, k)
}

func (s typedStore[V]) Set(k Key, v V) {
	SetData(s.c, k, v)
}

func (s typedStore[V]) Delete(k Key) {
	s.c.RemoveData(k)
}

func (s typedStore[V]) Update(k Key, fn func(current V, ok bool) V) V {
	return UpdateData(s.c, k, fn)
}
