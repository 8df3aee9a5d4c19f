package processors

import (
	"errors"
	"fmt"
	"sync"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

// journal records writes across channels in the order they happened
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type readResult struct {
	frame frames.Frame
	err   error
}

var errDisconnected = errors.New("connection reset by peer")

// fakeChannel is a transports.Channel fed from a Go channel
type fakeChannel struct {
	name    string
	reads   chan readResult
	journal *journal

	mu       sync.Mutex
	written  []frames.Frame
	writeErr error
	closed   bool
	done     chan struct{}
}

func newFakeChannel(name string, j *journal) *fakeChannel {
	return &fakeChannel{
		name:    name,
		reads:   make(chan readResult, 64),
		journal: j,
		done:    make(chan struct{}),
	}
}

func (c *fakeChannel) push(f frames.Frame)   { c.reads <- readResult{frame: f} }
func (c *fakeChannel) pushErr(err error)     { c.reads <- readResult{err: err} }
func (c *fakeChannel) disconnect()           { c.pushErr(errDisconnected) }
func (c *fakeChannel) setWriteErr(err error) { c.mu.Lock(); c.writeErr = err; c.mu.Unlock() }

func (c *fakeChannel) ReadFrame() (frames.Frame, error) {
	select {
	case r := <-c.reads:
		if r.err != nil && !errors.Is(r.err, serializers.ErrMalformed) {
			c.mu.Lock()
			if !c.closed {
				c.closed = true
				close(c.done)
			}
			c.mu.Unlock()
		}
		return r.frame, r.err
	case <-c.done:
		return nil, fmt.Errorf("%s: %w", c.name, transports.ErrChannelClosed)
	}
}

func (c *fakeChannel) WriteFrame(f frames.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%s: %w", c.name, transports.ErrChannelClosed)
	}
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, f)
	if c.journal != nil {
		c.journal.add(c.name + ":" + f.Name())
	}
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func (c *fakeChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeChannel) writes() []frames.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]frames.Frame(nil), c.written...)
}

var _ transports.Channel = (*fakeChannel)(nil)
