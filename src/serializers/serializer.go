package serializers

import (
	"errors"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
)

var (
	// ErrMalformed marks a message that could not be decoded. Callers
	// treat it as a per-message failure and keep reading.
	ErrMalformed = errors.New("malformed message")

	// ErrUnsupportedFrame is returned when a frame has no wire form
	// on the serializer's protocol
	ErrUnsupportedFrame = errors.New("unsupported frame")
)

// SerializerType defines the serialization format type
type SerializerType string

const (
	SerializerTypeBinary SerializerType = "binary"
	SerializerTypeText   SerializerType = "text"
)

// FrameSerializer converts frames to and from a protocol's wire messages
// (Twilio Media Streams, OpenAI Realtime)
type FrameSerializer interface {
	// Type returns the websocket message type the protocol uses
	Type() SerializerType

	// Serialize converts a frame to its wire representation
	Serialize(frame frames.Frame) ([]byte, error)

	// Deserialize converts one wire message to a frame.
	// A nil frame with a nil error means the message is ignored.
	Deserialize(data []byte) (frames.Frame, error)
}
