package namemap

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnavailable = errors.New("namemap: name map unavailable")

// Registry owns the process-wide Mapper. The table is built on the first Get
// and kept until Release. A failed build is remembered: every later Get
// reports the same error without retrying.
type Registry struct {
	mu     sync.Mutex
	load   func() (*Mapper, error)
	mapper *Mapper
	err    error
}

// NewRegistry loads from path, or from the embedded table when path is empty.
func NewRegistry(path string) *Registry {
	if path == "" {
		return NewRegistryFunc(Default)
	}
	return NewRegistryFunc(func() (*Mapper, error) { return LoadFile(path) })
}

func NewRegistryFunc(load func() (*Mapper, error)) *Registry {
	return &Registry{load: load}
}

func (r *Registry) Get() (*Mapper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.mapper != nil {
		return r.mapper, nil
	}
	m, err := r.load()
	if err != nil {
		r.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return nil, r.err
	}
	r.mapper = m
	return m, nil
}

// Release drops the loaded table. The next Get rebuilds it unless loading
// has already failed.
func (r *Registry) Release() {
	r.mu.Lock()
	r.mapper = nil
	r.mu.Unlock()
}

// Loaded reports whether a table is currently held.
func (r *Registry) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mapper != nil
}
