package roxy

import (
	"bytes"
	"context"
	"errors"
)

// Pipeline applies an ordered chain of transforms.
//
// Steps run in insertion order; each one receives exactly the output of the
// step before it (the first one receives the run input). Two buffers owned
// by the Pipeline alternate as input and output so a run does not allocate
// a new buffer per step. Because those buffers are reused across runs, a
// Pipeline must not be used by more than one goroutine at a time.
type Pipeline struct {
	steps []Transform
	bufA  bytes.Buffer
	bufB  bytes.Buffer
}

// NewPipeline creates a Pipeline running steps in the given order.
func NewPipeline(steps ...Transform) *Pipeline {
	p := &Pipeline{}
	for _, s := range steps {
		p.Push(s)
	}
	return p
}

// Push appends a step. Compatibility between steps is not checked here;
// a step fed input it cannot handle reports it through its own error.
func (p *Pipeline) Push(step Transform) {
	p.steps = append(p.steps, step)
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Run passes src through every step and appends the final output to dst.
//
// An empty pipeline is a pass-through: dst receives src unchanged. When a
// step fails, or ctx is done before a step starts, the run stops: later steps
// are not called and dst is left exactly as it was. Step failures are
// returned as *TransformError.
func (p *Pipeline) Run(ctx context.Context, path string, src []byte, dst *bytes.Buffer) error {
	if len(p.steps) == 0 {
		dst.Write(src)
		return nil
	}

	in, out := &p.bufA, &p.bufB
	in.Reset()
	in.Write(src)

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &TransformError{Index: i, Step: stepName(step), Path: path, Err: err}
		}

		out.Reset()
		if err := step.Apply(ctx, path, in.Bytes(), out); err != nil {
			return &TransformError{Index: i, Step: stepName(step), Path: path, Err: err}
		}
		in, out = out, in
	}

	dst.Write(in.Bytes())
	return nil
}

// Render runs the pipeline and returns the output in a new slice.
func (p *Pipeline) Render(ctx context.Context, path string, src []byte) ([]byte, error) {
	var dst bytes.Buffer
	if err := p.Run(ctx, path, src, &dst); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

// Close releases resources held by steps (for example a browser held by the
// PDF step). All closers are called; their errors are joined.
func (p *Pipeline) Close() error {
	var errs []error
	for _, step := range p.steps {
		if err := closeStep(step); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
