// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/aaronlindsay879/savecodec/schema"
)

// Registry maps names to compiled codecs and supports replacing a codec
// while other goroutines decode with the previous one.
type Registry struct {
	opts []Option

	mu       sync.RWMutex
	codecs   map[string]*Codec
	versions map[string]uint64
}

// NewRegistry creates an empty registry. opts are applied to every codec it
// compiles.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:     opts,
		codecs:   make(map[string]*Codec),
		versions: make(map[string]uint64),
	}
}

// Register parses and compiles a schema document and installs it under name,
// replacing any previous codec. It returns the new version of name.
func (r *Registry) Register(name string, doc []byte) (uint64, error) {
	// Compile outside the lock.
	s, err := schema.Parse(doc)
	if err != nil {
		return 0, fmt.Errorf("registering %s: %w", name, err)
	}
	c, err := New(s, r.opts...)
	if err != nil {
		return 0, fmt.Errorf("registering %s: %w", name, err)
	}
	return r.Set(name, c), nil
}

// Set installs an already compiled codec under name and returns the new
// version of name.
func (r *Registry) Set(name string, c *Codec) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[name] = c
	r.versions[name]++
	return r.versions[name]
}

// Get returns the current codec for name.
func (r *Registry) Get(name string) (*Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[name]
	return c, ok
}

// Version returns how many times name has been registered.
func (r *Registry) Version(name string) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.versions[name]
}

// Decode decodes data with the codec currently registered under name. A
// concurrent Register does not affect a decode already in progress.
func (r *Registry) Decode(name string, data []byte) (*Record, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("codec %q not registered", name)
	}
	return c.Decode(data)
}

// AtomicCodec holds a single codec that can be swapped without locking.
type AtomicCodec struct {
	codec   atomic.Pointer[Codec]
	version atomic.Uint64
}

// NewAtomicCodec wraps c as version 1.
func NewAtomicCodec(c *Codec) *AtomicCodec {
	a := &AtomicCodec{}
	a.codec.Store(c)
	a.version.Store(1)
	return a
}

// Swap replaces the held codec.
func (a *AtomicCodec) Swap(c *Codec) uint64 {
	a.codec.Store(c)
	return a.version.Add(1)
}

// Load returns the current codec.
func (a *AtomicCodec) Load() *Codec { return a.codec.Load() }

// Version returns the number of codecs held so far.
func (a *AtomicCodec) Version() uint64 { return a.version.Load() }
