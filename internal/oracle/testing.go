package oracle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/stretchr/testify/require"
)

// TestingT is the subset of *testing.T the oracle reports through
type TestingT interface {
	require.TestingT
	Helper()
}

// errAbort is the panic value FailNow raises on a Recorder
var errAbort = errors.New("oracle: assertion aborted")

// Recorder is a TestingT that collects failures instead of failing a Go
// test. FailNow unwinds with a panic that Capture recovers.
type Recorder struct {
	mu       sync.Mutex
	failures []string
	failed   bool
}

func (r *Recorder) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = true
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (r *Recorder) FailNow() {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()
	panic(errAbort)
}

func (r *Recorder) Helper() {}

// Failed reports whether any failure was recorded
func (r *Recorder) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

// Failures returns the recorded failure messages
func (r *Recorder) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.failures))
	copy(out, r.failures)
	return out
}

// Capture runs fn against a fresh Recorder. Panics other than the FailNow
// abort are recorded as failures.
func Capture(fn func(t TestingT)) *Recorder {
	r := &Recorder{}
	func() {
		defer func() {
			if p := recover(); p != nil && p != errAbort {
				r.Errorf("panic: %v", p)
			}
		}()
		fn(r)
	}()
	return r
}

// passes reports whether check completes without failures
func passes(check func(t TestingT)) bool {
	return !Capture(check).Failed()
}

// watch forwards to a TestingT and remembers whether anything failed
type watch struct {
	TestingT
	failed bool
}

func (w *watch) Errorf(format string, args ...any) {
	w.failed = true
	w.TestingT.Errorf(format, args...)
}

func (w *watch) FailNow() {
	w.failed = true
	w.TestingT.FailNow()
}
