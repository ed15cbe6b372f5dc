package objectstore

import (
	"context"
	"io"
	"sync"
	"time"
)

// Faulty wraps a store and fails selected calls. It is used to exercise compensation paths.
type Faulty struct {
	Inner Store

	mu         sync.Mutex
	failPut    error
	failDelete error
	failSigned error

	puts    int
	deletes int
	stored  []string
}

var _ Store = (*Faulty)(nil)

func NewFaulty(inner Store) *Faulty { return &Faulty{Inner: inner} }

func (f *Faulty) FailPut(err error) {
	f.mu.Lock()
	f.failPut = err
	f.mu.Unlock()
}

func (f *Faulty) FailDelete(err error) {
	f.mu.Lock()
	f.failDelete = err
	f.mu.Unlock()
}

func (f *Faulty) FailSignedGet(err error) {
	f.mu.Lock()
	f.failSigned = err
	f.mu.Unlock()
}

// Calls reports how many Put and Delete calls reached the wrapper.
func (f *Faulty) Calls() (puts, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts, f.deletes
}

// StoredPaths lists the paths of every Put that reached the inner store.
func (f *Faulty) StoredPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.stored...)
}

func (f *Faulty) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	f.mu.Lock()
	f.puts++
	err := f.failPut
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if err := f.Inner.Put(ctx, path, r, contentType); err != nil {
		return err
	}
	f.mu.Lock()
	f.stored = append(f.stored, path)
	f.mu.Unlock()
	return nil
}

func (f *Faulty) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	f.deletes++
	err := f.failDelete
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Inner.Delete(ctx, path)
}

func (f *Faulty) SignedGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	err := f.failSigned
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.Inner.SignedGet(ctx, path, ttl)
}

func (f *Faulty) Stat(ctx context.Context, path string) (*ObjectAttrs, error) {
	return f.Inner.Stat(ctx, path)
}
