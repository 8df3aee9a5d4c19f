package transports

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
	"github.com/square-key-labs/strawgo-callbridge/src/logger"
	"github.com/square-key-labs/strawgo-callbridge/src/serializers"
)

// ErrChannelClosed is returned for reads and writes on a channel that was
// closed locally or by a normal close handshake from the peer.
var ErrChannelClosed = errors.New("channel closed")

// ErrChannelBroken is returned by the write that failed on the connection.
// Gorilla write errors are permanent, so the channel is closed and every
// later write returns ErrChannelClosed.
var ErrChannelBroken = errors.New("channel broken")

const closeGracePeriod = time.Second

// ChannelConfig holds configuration for a WebSocketChannel
type ChannelConfig struct {
	Name         string                      // used in logs, e.g. "twilio" or "openai"
	Serializer   serializers.FrameSerializer // protocol codec
	WriteTimeout time.Duration               // per-write deadline, 0 disables
	ReadLimit    int64                       // max message size, 0 keeps gorilla's default
}

// WebSocketChannel exchanges frames over one websocket connection using an
// injected serializer. Reads must come from a single goroutine; writes may
// come from any number of goroutines.
type WebSocketChannel struct {
	name         string
	conn         *websocket.Conn
	serializer   serializers.FrameSerializer
	writeTimeout time.Duration
	logger       *logger.Logger

	writeMu       sync.Mutex // gorilla allows one concurrent writer
	closed        atomic.Bool
	closedLocally atomic.Bool
	closeOnce     sync.Once
}

// NewWebSocketChannel wraps an established connection
func NewWebSocketChannel(conn *websocket.Conn, config ChannelConfig) *WebSocketChannel {
	if config.Serializer == nil {
		panic("WebSocketChannel requires a serializer")
	}
	if config.Name == "" {
		config.Name = "ws"
	}
	if config.ReadLimit > 0 {
		conn.SetReadLimit(config.ReadLimit)
	}
	return &WebSocketChannel{
		name:         config.Name,
		conn:         conn,
		serializer:   config.Serializer,
		writeTimeout: config.WriteTimeout,
		logger:       logger.WithPrefix("WebSocket").WithField("channel", config.Name),
	}
}

// Name returns the channel label
func (c *WebSocketChannel) Name() string {
	return c.name
}

// ReadFrame blocks until the next frame arrives. Messages the serializer
// ignores are skipped. Decode failures return an error wrapping
// serializers.ErrMalformed and leave the channel usable.
func (c *WebSocketChannel) ReadFrame() (frames.Frame, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.closed.Store(true)
			if c.closedLocally.Load() ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%s: %w", c.name, ErrChannelClosed)
			}
			return nil, fmt.Errorf("%s read failed: %w", c.name, err)
		}

		frame, err := c.serializer.Deserialize(data)
		if err != nil {
			return nil, err
		}
		if frame == nil {
			continue
		}
		return frame, nil
	}
}

// WriteFrame serializes and sends one frame
func (c *WebSocketChannel) WriteFrame(frame frames.Frame) error {
	if c.closed.Load() {
		return fmt.Errorf("%s: %w", c.name, ErrChannelClosed)
	}

	data, err := c.serializer.Serialize(frame)
	if err != nil {
		return err
	}

	msgType := websocket.TextMessage
	if c.serializer.Type() == serializers.SerializerTypeBinary {
		msgType = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("%s: set write deadline: %w", c.name, err)
		}
	}
	if err := c.conn.WriteMessage(msgType, data); err != nil {
		if c.closed.Load() {
			return fmt.Errorf("%s: %w", c.name, ErrChannelClosed)
		}
		c.abort()
		return fmt.Errorf("%s write failed: %w: %v", c.name, ErrChannelBroken, err)
	}
	return nil
}

// abort drops the connection without a close handshake. A blocked
// ReadFrame returns a read error rather than ErrChannelClosed.
func (c *WebSocketChannel) abort() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("abort: %v", err)
		}
		c.logger.Warn("connection broken, closed")
	})
}

// IsOpen reports whether the channel can still carry frames
func (c *WebSocketChannel) IsOpen() bool {
	return !c.closed.Load()
}

// Close sends a normal close frame and releases the connection. It is safe
// to call more than once and from any goroutine; a blocked ReadFrame
// returns ErrChannelClosed.
func (c *WebSocketChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closedLocally.Store(true)
		c.closed.Store(true)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) {
			c.logger.Debug("close frame not sent: %v", werr)
		}
		err = c.conn.Close()
		c.logger.Debug("closed")
	})
	return err
}
