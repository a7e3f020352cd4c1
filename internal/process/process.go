// Package process terminates the browser process trees started by the PDF
// step. Closing the browser connection alone can leave renderer and GPU
// children running.
package process

import "errors"

// ErrInvalidPID is returned for PIDs that cannot name a child process.
// PID 0 would target the caller's own process group.
var ErrInvalidPID = errors.New("invalid process id")
