package roxy

import (
	"bytes"
	"context"
	"time"
)

// StepObserver receives the outcome of every call to an instrumented step.
type StepObserver interface {
	ObserveStep(step string, elapsed time.Duration, err error)
}

// Instrumented reports each Apply of t to obs. The returned transform keeps
// the name of t and still closes it.
func Instrumented(t Transform, obs StepObserver) Transform {
	if obs == nil {
		return t
	}
	return &instrumentedTransform{inner: t, obs: obs}
}

type instrumentedTransform struct {
	inner Transform
	obs   StepObserver
}

func (i *instrumentedTransform) Apply(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error {
	start := time.Now()
	err := i.inner.Apply(ctx, path, src, dst)
	i.obs.ObserveStep(stepName(i.inner), time.Since(start), err)
	return err
}

func (i *instrumentedTransform) Name() string { return stepName(i.inner) }

func (i *instrumentedTransform) Close() error { return closeStep(i.inner) }
