package snapstore

import (
	"context"
	"time"

	"github.com/mvoltz/tether/pkg/observability"
)

// instrumented wraps a Store and reports operation timings through the
// registered observability hooks.
type instrumented struct {
	backend string
	next    Store
}

// Instrument wraps s so every operation is reported to
// [observability.Store] under the given backend name.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

func (i *instrumented) Put(ctx context.Context, s *Snapshot) error {
	start := time.Now()
	err := i.next.Put(ctx, s)
	observability.Store().OnPut(ctx, i.backend, len(s.Data), time.Since(start), err)
	return err
}

func (i *instrumented) Get(ctx context.Context, id string) (*Snapshot, error) {
	start := time.Now()
	s, err := i.next.Get(ctx, id)
	observability.Store().OnGet(ctx, i.backend, time.Since(start), err)
	return s, err
}

func (i *instrumented) List(ctx context.Context) ([]Info, error) {
	return i.next.List(ctx)
}

func (i *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := i.next.Delete(ctx, id)
	observability.Store().OnDelete(ctx, i.backend, time.Since(start), err)
	return err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}

var _ Store = (*instrumented)(nil)
