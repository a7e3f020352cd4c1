package roxy

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingStep appends suffix to its input and records every call.
type recordingStep struct {
	name   string
	suffix string
	err    error
	calls  int
	paths  []string
	closed bool
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Apply(_ context.Context, path string, src []byte, dst *bytes.Buffer) error {
	s.calls++
	s.paths = append(s.paths, path)
	if s.err != nil {
		return s.err
	}
	dst.Write(src)
	dst.WriteString(s.suffix)
	return nil
}

func (s *recordingStep) Close() error {
	s.closed = true
	return nil
}

func TestPipeline_EmptyIsIdentity(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("# hello"),
		{0xff, 0xfe, 0x00, 'x'},
	}

	p := NewPipeline()
	for _, in := range inputs {
		var dst bytes.Buffer
		if err := p.Run(context.Background(), "out.html", in, &dst); err != nil {
			t.Fatalf("Run(%q) error = %v", in, err)
		}
		if !bytes.Equal(dst.Bytes(), in) {
			t.Errorf("Run(%q) = %q, want input unchanged", in, dst.Bytes())
		}
	}
}

func TestPipeline_RunsStepsInOrder(t *testing.T) {
	t.Parallel()

	a := &recordingStep{name: "a", suffix: "A"}
	b := &recordingStep{name: "b", suffix: "B"}

	got, err := NewPipeline(a, b).Render(context.Background(), "x", []byte(">"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != ">AB" {
		t.Errorf("Render() = %q, want %q", got, ">AB")
	}

	got, err = NewPipeline(b, a).Render(context.Background(), "x", []byte(">"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != ">BA" {
		t.Errorf("Render() reversed = %q, want %q", got, ">BA")
	}
}

func TestPipeline_FailureShortCircuits(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	first := &recordingStep{name: "first", suffix: "1"}
	second := &recordingStep{name: "second", err: boom}
	third := &recordingStep{name: "third", suffix: "3"}

	p := NewPipeline(first, second, third)

	dst := bytes.NewBufferString("untouched")
	err := p.Run(context.Background(), "out.html", []byte("in"), dst)
	if err == nil {
		t.Fatal("Run() expected error")
	}

	if third.calls != 0 {
		t.Errorf("third step called %d times, want 0", third.calls)
	}
	if dst.String() != "untouched" {
		t.Errorf("dst = %q, want it unmodified", dst.String())
	}

	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *TransformError", err)
	}
	if terr.Index != 1 || terr.Step != "second" || terr.Path != "out.html" {
		t.Errorf("TransformError = %+v, want index 1, step second, path out.html", terr)
	}
	if !errors.Is(err, ErrTransform) {
		t.Error("errors.Is(err, ErrTransform) = false")
	}
	if !errors.Is(err, boom) {
		t.Error("errors.Is(err, boom) = false, cause lost")
	}
}

func TestPipeline_ContextIdentifierReachesEveryStep(t *testing.T) {
	t.Parallel()

	steps := []*recordingStep{{name: "a"}, {name: "b"}, {name: "c"}}
	p := NewPipeline()
	for _, s := range steps {
		p.Push(s)
	}

	const id = "public/posts/first.html"
	if _, err := p.Render(context.Background(), id, []byte("x")); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, s := range steps {
		if len(s.paths) != 1 || s.paths[0] != id {
			t.Errorf("step %s saw paths %q, want [%q]", s.name, s.paths, id)
		}
	}
}

func TestPipeline_OutputBufferIsClearedBetweenSteps(t *testing.T) {
	t.Parallel()

	var seen []int
	lengthCheck := TransformFunc(func(_ context.Context, _ string, src []byte, dst *bytes.Buffer) error {
		seen = append(seen, dst.Len())
		dst.Write(src)
		return nil
	})

	p := NewPipeline(lengthCheck, lengthCheck, lengthCheck)
	for range 2 {
		if _, err := p.Render(context.Background(), "x", []byte("payload")); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}

	for i, n := range seen {
		if n != 0 {
			t.Errorf("call %d: dst had %d stale bytes, want 0", i, n)
		}
	}
}

func TestPipeline_RunAppendsToDestination(t *testing.T) {
	t.Parallel()

	p := NewPipeline(&recordingStep{suffix: "!"})
	dst := bytes.NewBufferString("prefix:")
	if err := p.Run(context.Background(), "x", []byte("hi"), dst); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dst.String() != "prefix:hi!" {
		t.Errorf("dst = %q, want %q", dst.String(), "prefix:hi!")
	}
}

func TestPipeline_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	upper := TransformFunc(func(_ context.Context, _ string, src []byte, dst *bytes.Buffer) error {
		dst.Write(bytes.ToUpper(src))
		return nil
	})
	src := []byte("abc")
	if _, err := NewPipeline(upper).Render(context.Background(), "x", src); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(src) != "abc" {
		t.Errorf("src = %q, want it unchanged", src)
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()

	step := &recordingStep{name: "never"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dst := &bytes.Buffer{}
	err := NewPipeline(step).Run(ctx, "x", []byte("in"), dst)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if step.calls != 0 {
		t.Errorf("step called %d times after cancel, want 0", step.calls)
	}
	if dst.Len() != 0 {
		t.Errorf("dst = %q, want empty", dst.String())
	}
}

func TestPipeline_UnnamedStepInError(t *testing.T) {
	t.Parallel()

	fail := TransformFunc(func(context.Context, string, []byte, *bytes.Buffer) error {
		return errors.New("bad input")
	})
	_, err := NewPipeline(fail).Render(context.Background(), "a.html", nil)
	if err == nil {
		t.Fatal("Render() expected error")
	}
	if !strings.Contains(err.Error(), "step 1") || !strings.Contains(err.Error(), "a.html") {
		t.Errorf("error = %q, want step position and path", err.Error())
	}
}

func TestPipeline_LenAndClose(t *testing.T) {
	t.Parallel()

	a := &recordingStep{}
	b := &recordingStep{}
	p := NewPipeline(a, Named("b", b))
	p.Push(TransformFunc(func(context.Context, string, []byte, *bytes.Buffer) error { return nil }))

	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() should close every closable step, including named ones")
	}
}

func TestSynchronized(t *testing.T) {
	t.Parallel()

	inner := &recordingStep{name: "inner", suffix: "+"}
	s := Synchronized(inner)

	if got := stepName(s); got != "inner" {
		t.Errorf("stepName(Synchronized) = %q, want %q", got, "inner")
	}

	done := make(chan struct{})
	for range 4 {
		go func() {
			defer func() { done <- struct{}{} }()
			var dst bytes.Buffer
			_ = s.Apply(context.Background(), "x", []byte("a"), &dst)
		}()
	}
	for range 4 {
		<-done
	}
	if inner.calls != 4 {
		t.Errorf("inner calls = %d, want 4", inner.calls)
	}
}
