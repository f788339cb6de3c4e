package listview

import (
	"context"
	"sync"
)

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type FetchState[T any] struct {
	Loading bool
	Err     string
	Items   []T
}

// Fetcher loads a collection and keeps the last outcome. A failed load
// leaves an empty collection, never the previous one. It does not retry.
type Fetcher[T any] struct {
	fetch   FetchFunc[T]
	message func(error) string

	mu    sync.Mutex
	state FetchState[T]
	loads int
}

// NewFetcher wraps fetch. message turns a failure into the text shown to
// the user; nil uses err.Error().
func NewFetcher[T any](fetch FetchFunc[T], message func(error) string) *Fetcher[T] {
	if message == nil {
		message = func(err error) string { return err.Error() }
	}
	return &Fetcher[T]{fetch: fetch, message: message, state: FetchState[T]{Items: []T{}}}
}

func (f *Fetcher[T]) Load(ctx context.Context) ([]T, error) {
	f.mu.Lock()
	f.state.Loading = true
	f.state.Err = ""
	f.loads++
	f.mu.Unlock()

	items, err := f.fetch(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Loading = false
	if err != nil {
		f.state.Err = f.message(err)
		f.state.Items = []T{}
		return []T{}, err
	}
	if items == nil {
		items = []T{}
	}
	f.state.Items = items
	return items, nil
}

func (f *Fetcher[T]) State() FetchState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fetcher[T]) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}
