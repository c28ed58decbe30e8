// Package revalidate implements a stale-while-revalidate query: it shows fallback or
// previous data immediately and replaces it when a fresh response arrives.
package revalidate

import (
	"context"
	"sync"
)

// State is the lifecycle position of a Query.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReadyFromFallback
	StateRevalidating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReadyFromFallback:
		return "readyFromFallback"
	case StateRevalidating:
		return "revalidating"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Fetcher loads the data for params.
type Fetcher[P comparable, T any] func(ctx context.Context, params P) (T, error)

// Options configure a Query.
type Options[T any] struct {
	// Fallback is shown before the first fetch completes.
	Fallback *T
	// KeepPreviousData keeps the current rows visible while a parameter change loads.
	KeepPreviousData bool
}

// Snapshot is a consistent view of a Query.
type Snapshot[P comparable, T any] struct {
	Params     P
	Data       T
	HasData    bool
	State      State
	Validating bool
	Err        error
	Version    uint64
}

// Query holds the displayed data of one logical request.
//
// Every fetch is numbered; a response is applied only if no newer fetch was issued after it,
// so an old slow response can never overwrite a newer one.
type Query[P comparable, T any] struct {
	fetch Fetcher[P, T]
	opts  Options[T]

	mu       sync.Mutex
	params   P
	data     T
	hasData  bool
	state    State
	err      error
	issued   uint64
	inflight int
	version  uint64
	subs     map[int]func(Snapshot[P, T])
	nextSub  int
}

// NewQuery creates a query for params. With a fallback it starts ready with that data.
func NewQuery[P comparable, T any](fetch Fetcher[P, T], params P, opts Options[T]) *Query[P, T] {
	q := &Query[P, T]{
		fetch:  fetch,
		opts:   opts,
		params: params,
		state:  StateIdle,
		subs:   make(map[int]func(Snapshot[P, T])),
	}
	if opts.Fallback != nil {
		q.data = *opts.Fallback
		q.hasData = true
		q.state = StateReadyFromFallback
	}
	return q
}

// Snapshot returns the current view.
func (q *Query[P, T]) Snapshot() Snapshot[P, T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Query[P, T]) snapshotLocked() Snapshot[P, T] {
	return Snapshot[P, T]{
		Params:     q.params,
		Data:       q.data,
		HasData:    q.hasData,
		State:      q.state,
		Validating: q.inflight > 0,
		Err:        q.err,
		Version:    q.version,
	}
}

// Subscribe registers fn to receive every state change. The returned func unsubscribes.
// fn runs on the goroutine that caused the change, must not block and must not call back into q.
func (q *Query[P, T]) Subscribe(fn func(Snapshot[P, T])) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// Revalidate fetches the current params again and applies the response if it is still the newest.
// The returned error is the fetch error, if any; the displayed data is kept on failure.
func (q *Query[P, T]) Revalidate(ctx context.Context) error {
	q.mu.Lock()
	params := q.params
	seq := q.beginLocked()
	q.mu.Unlock()

	return q.run(ctx, params, seq)
}

// SetParams switches the query to params and fetches them.
// With KeepPreviousData the displayed rows stay until the new response arrives;
// otherwise they are cleared and the query shows as loading.
func (q *Query[P, T]) SetParams(ctx context.Context, params P) error {
	q.mu.Lock()
	if params == q.params && q.hasData {
		q.mu.Unlock()
		return nil
	}
	q.params = params
	if !q.opts.KeepPreviousData {
		var zero T
		q.data = zero
		q.hasData = false
	}
	seq := q.beginLocked()
	q.mu.Unlock()

	return q.run(ctx, params, seq)
}

// beginLocked numbers a new fetch and moves to the matching in-flight state.
func (q *Query[P, T]) beginLocked() uint64 {
	q.issued++
	q.inflight++
	if q.hasData {
		q.state = StateRevalidating
	} else {
		q.state = StateLoading
	}
	q.changedLocked()
	return q.issued
}

func (q *Query[P, T]) run(ctx context.Context, params P, seq uint64) error {
	data, err := q.fetch(ctx, params)

	q.mu.Lock()
	q.inflight--
	if seq != q.issued {
		// A newer fetch owns the state; only refresh the validating flag.
		q.changedLocked()
		q.mu.Unlock()
		return err
	}

	if err != nil {
		q.err = err
	} else {
		q.data = data
		q.hasData = true
		q.err = nil
	}
	q.state = StateReady
	q.changedLocked()
	q.mu.Unlock()

	return err
}

// changedLocked bumps the version and notifies subscribers with the new snapshot.
func (q *Query[P, T]) changedLocked() {
	q.version++
	snap := q.snapshotLocked()
	for _, fn := range q.subs {
		fn(snap)
	}
}
