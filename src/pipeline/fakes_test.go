package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/transports"
)

var errHangup = errors.New("connection reset by peer")

type fakeChannel struct {
	name  string
	reads chan frames.Frame
	hang  chan struct{}

	mu       sync.Mutex
	written  []frames.Frame
	writeErr error
	closed   bool
	done     chan struct{}
	hangOnce sync.Once
}

func newFakeChannel(name string) *fakeChannel {
	return &fakeChannel{
		name:  name,
		reads: make(chan frames.Frame, 16),
		hang:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// hangup makes the next read fail as if the peer dropped the connection
func (c *fakeChannel) hangup() {
	c.hangOnce.Do(func() { close(c.hang) })
}

func (c *fakeChannel) ReadFrame() (frames.Frame, error) {
	select {
	case f := <-c.reads:
		return f, nil
	case <-c.hang:
		c.Close()
		return nil, errHangup
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

type fakeDialer struct {
	mu       sync.Mutex
	channels []*fakeChannel
	err      error
	writeErr error
}

func (d *fakeDialer) Dial(ctx context.Context) (transports.Channel, error) {
	if d.err != nil {
		return nil, d.err
	}
	ch := newFakeChannel("openai")
	ch.writeErr = d.writeErr
	d.mu.Lock()
	d.channels = append(d.channels, ch)
	d.mu.Unlock()
	return ch, nil
}

func (d *fakeDialer) last() *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.channels) == 0 {
		return nil
	}
	return d.channels[len(d.channels)-1]
}
