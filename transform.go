package roxy

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Transform converts one byte sequence into another.
//
// The path argument is the context identifier of the current pipeline run.
// It is the same string for every step of one run and is conventionally the
// output location. Stateful steps use it as a key (the Template step
// registers its template under it), so it doubles as a human-readable asset
// name and as a registry key.
//
// dst is empty when Apply is called; implementations append their output to
// it. src belongs to the caller and must not be retained or modified.
// Malformed input is reported as an error, never as a panic.
type Transform interface {
	Apply(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error
}

// Namer is implemented by transforms that want a readable name in errors
// and metrics.
type Namer interface {
	Name() string
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error

// Apply calls f.
func (f TransformFunc) Apply(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error {
	return f(ctx, path, src, dst)
}

// Named gives t a name without changing its behavior.
func Named(name string, t Transform) Transform {
	return &namedTransform{name: name, Transform: t}
}

type namedTransform struct {
	Transform
	name string
}

func (n *namedTransform) Name() string { return n.name }

// Close forwards to the wrapped transform when it holds resources.
func (n *namedTransform) Close() error {
	return closeStep(n.Transform)
}

// Synchronized serializes calls to t. Use it to share one stateful
// transform, such as a *Template, between pipelines running concurrently:
// registration and rendering then happen at most once at a time.
func Synchronized(t Transform) Transform {
	return &syncTransform{inner: t}
}

type syncTransform struct {
	mu    sync.Mutex
	inner Transform
}

func (s *syncTransform) Apply(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Apply(ctx, path, src, dst)
}

func (s *syncTransform) Name() string { return stepName(s.inner) }

func (s *syncTransform) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeStep(s.inner)
}

// stepName returns the name of t, or "" when it has none.
func stepName(t Transform) string {
	if n, ok := t.(Namer); ok {
		return n.Name()
	}
	return ""
}

// closeStep closes t if it holds resources.
func closeStep(t Transform) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
