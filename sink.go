package roxy

import "github.com/alnah/go-roxy/internal/fileutil"

// Sink receives the output of a successful pipeline run.
type Sink interface {
	Write(locator string, data []byte) error
}

// FileSink writes outputs to the local filesystem. Missing parent
// directories are created and every file is replaced atomically, so an
// existing output is either left as it was or fully rewritten.
type FileSink struct{}

// Write implements Sink.
func (FileSink) Write(locator string, data []byte) error {
	return fileutil.WriteFileAtomic(locator, data)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(locator string, data []byte) error

// Write calls f.
func (f SinkFunc) Write(locator string, data []byte) error {
	return f(locator, data)
}

var (
	_ Sink = FileSink{}
	_ Sink = SinkFunc(nil)
)
