package serializers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
)

// TwilioFrameSerializer handles the Twilio Media Streams WebSocket protocol
type TwilioFrameSerializer struct{}

// Twilio message structures
type twilioMessage struct {
	Event          string       `json:"event"`
	SequenceNumber string       `json:"sequenceNumber,omitempty"`
	StreamSid      string       `json:"streamSid,omitempty"`
	Protocol       string       `json:"protocol,omitempty"`
	Media          *twilioMedia `json:"media,omitempty"`
	Start          *twilioStart `json:"start,omitempty"`
	Mark           *twilioMark  `json:"mark,omitempty"`
	Stop           *twilioStop  `json:"stop,omitempty"`
}

type twilioMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // base64-encoded mulaw audio
}

type twilioStart struct {
	StreamSid        string            `json:"streamSid"`
	CallSid          string            `json:"callSid"`
	AccountSid       string            `json:"accountSid"`
	Tracks           []string          `json:"tracks"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

type twilioMark struct {
	Name string `json:"name"`
}

type twilioStop struct {
	AccountSid string `json:"accountSid"`
	CallSid    string `json:"callSid"`
}

// NewTwilioFrameSerializer creates a new Twilio serializer
func NewTwilioFrameSerializer() *TwilioFrameSerializer {
	return &TwilioFrameSerializer{}
}

// Type returns the serialization type (Twilio uses JSON/text)
func (s *TwilioFrameSerializer) Type() SerializerType {
	return SerializerTypeText
}

// Serialize converts an outbound frame to Twilio WebSocket JSON
func (s *TwilioFrameSerializer) Serialize(frame frames.Frame) ([]byte, error) {
	var msg twilioMessage

	switch f := frame.(type) {
	case *frames.OutputAudioFrame:
		msg = twilioMessage{
			Event:     "media",
			StreamSid: f.StreamSid,
			Media: &twilioMedia{
				Payload: base64.StdEncoding.EncodeToString(f.Audio),
			},
		}

	case *frames.ClearFrame:
		// Clear drops audio Twilio has buffered for playback
		msg = twilioMessage{
			Event:     "clear",
			StreamSid: f.StreamSid,
		}

	case *frames.MarkFrame:
		msg = twilioMessage{
			Event:     "mark",
			StreamSid: f.StreamSid,
			Mark:      &twilioMark{Name: f.MarkName},
		}

	default:
		return nil, fmt.Errorf("twilio: %w: %s", ErrUnsupportedFrame, frame.Name())
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Twilio %s message: %w", msg.Event, err)
	}
	return data, nil
}

// Deserialize converts Twilio WebSocket JSON to frames
func (s *TwilioFrameSerializer) Deserialize(data []byte) (frames.Frame, error) {
	var msg twilioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("twilio: %w: %v", ErrMalformed, err)
	}

	switch msg.Event {
	case "connected":
		return frames.NewStreamConnectedFrame(msg.Protocol), nil

	case "start":
		if msg.Start == nil {
			return nil, fmt.Errorf("twilio: %w: start event missing start data", ErrMalformed)
		}
		streamSid := msg.Start.StreamSid
		if streamSid == "" {
			streamSid = msg.StreamSid
		}
		if streamSid == "" {
			return nil, fmt.Errorf("twilio: %w: start event missing streamSid", ErrMalformed)
		}
		start := frames.NewStreamStartFrame(streamSid, msg.Start.CallSid)
		start.AccountSid = msg.Start.AccountSid
		start.CustomParameters = msg.Start.CustomParameters
		return start, nil

	case "media":
		if msg.Media == nil {
			return nil, fmt.Errorf("twilio: %w: media event missing media data", ErrMalformed)
		}

		// Decode base64 mulaw audio
		audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
		if err != nil {
			return nil, fmt.Errorf("twilio: %w: audio payload: %v", ErrMalformed, err)
		}

		media := frames.NewInputAudioFrame(msg.StreamSid, audio)
		media.Track = msg.Media.Track
		media.Chunk = msg.Media.Chunk
		media.Timestamp = msg.Media.Timestamp
		return media, nil

	case "mark":
		if msg.Mark == nil {
			return nil, fmt.Errorf("twilio: %w: mark event missing mark data", ErrMalformed)
		}
		return frames.NewMarkFrame(msg.StreamSid, msg.Mark.Name), nil

	case "stop":
		stop := frames.NewStreamStopFrame(msg.StreamSid)
		if msg.Stop != nil {
			stop.CallSid = msg.Stop.CallSid
		}
		return stop, nil

	case "":
		return nil, fmt.Errorf("twilio: %w: missing event field", ErrMalformed)

	default:
		// dtmf and anything newer have no meaning for the relay
		return nil, nil
	}
}
