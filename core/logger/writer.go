package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// sink is one buffered output. A sink that fails a write is disabled and
// reported once on stderr; the others keep receiving lines.
type sink struct {
	name string
	buf  *bufio.Writer
	err  error
}

// asyncWriter fans log lines out to its sinks from a single goroutine so
// handlers never block on file I/O unless the queue is full.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}

	mu     sync.RWMutex
	closed bool

	sinks []*sink
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]*sink, 0, len(writers))
	for i, w := range writers {
		if w == nil {
			continue
		}
		sinks = append(sinks, &sink{name: sinkName(w, i), buf: bufio.NewWriterSize(w, bufSize)})
	}
	w := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		sinks:    sinks,
	}
	go w.loop()
	return w
}

func sinkName(w io.Writer, i int) string {
	if f, ok := w.(*os.File); ok {
		return f.Name()
	}
	return fmt.Sprintf("sink#%d", i)
}

func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.flush()
				return
			}
			w.write(line)
		case ack := <-w.flushReq:
			ack <- w.flush()
		}
	}
}

// Write queues a copy of p. Once the queue is full it blocks rather than drop
// lines; after Close it fails with errWriterClosed.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- line
	return nil
}

// Flush blocks until every queued line has reached the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		<-w.done
		return w.sinkErr()
	}
	ack := make(chan error, 1)
	w.flushReq <- ack
	w.mu.RUnlock()
	return <-ack
}

// Close drains the queue and returns the errors of disabled sinks.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return w.sinkErr()
}

func (w *asyncWriter) write(line []byte) {
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		_, err := s.buf.Write(line)
		if err == nil {
			err = s.buf.Flush()
		}
		if err != nil {
			w.disable(s, err)
		}
	}
}

func (w *asyncWriter) flush() error {
	for _, s := range w.sinks {
		if s.err != nil {
			continue
		}
		if err := s.buf.Flush(); err != nil {
			w.disable(s, err)
		}
	}
	return w.sinkErr()
}

func (w *asyncWriter) disable(s *sink, err error) {
	s.err = fmt.Errorf("log sink %s: %w", s.name, err)
	fmt.Fprintf(os.Stderr, "logger: disabling %s: %v\n", s.name, err)
}

// sinkErr is read by the loop goroutine or after it has exited.
func (w *asyncWriter) sinkErr() error {
	var errs []error
	for _, s := range w.sinks {
		if s.err != nil {
			errs = append(errs, s.err)
		}
	}
	return errors.Join(errs...)
}
