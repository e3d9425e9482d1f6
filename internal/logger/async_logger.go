package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger wraps an io.Writer (typically a *lumberjack.Logger) with a
// bounded, buffered channel so a slow disk never blocks a worker's request
// dispatch loop. A full buffer drops the message and warns on stderr rather
// than blocking the caller.
type AsyncLogger struct {
	w      io.Writer
	msgs   chan []byte
	done   chan struct{}
	closed sync.Once
}

// NewAsyncLogger starts a background goroutine draining w with at most
// bufferSize messages queued.
func NewAsyncLogger(w io.Writer, bufferSize int) *AsyncLogger {
	a := &AsyncLogger{
		w:    w,
		msgs: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	defer close(a.done)
	for msg := range a.msgs {
		_, _ = a.w.Write(msg)
	}
}

// Write copies p and enqueues it, returning immediately. If the buffer is
// full, the message is dropped and a warning is printed to stderr.
func (a *AsyncLogger) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case a.msgs <- cp:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close drains any queued messages and waits for the writer goroutine to
// exit. If the wrapped writer is an io.Closer, it is closed afterward.
func (a *AsyncLogger) Close() error {
	var err error
	a.closed.Do(func() {
		close(a.msgs)
		<-a.done
		if c, ok := a.w.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
