package transports

import "github.com/square-key-labs/strawgo-callbridge/src/frames"

// FrameWriter sends frames to a peer
type FrameWriter interface {
	WriteFrame(frame frames.Frame) error
}

// Channel is one side of a call: the telephony media stream or the AI
// realtime session.
type Channel interface {
	FrameWriter
	ReadFrame() (frames.Frame, error)
	Close() error
	IsOpen() bool
}

var _ Channel = (*WebSocketChannel)(nil)
