package serializers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/square-key-labs/strawgo-callbridge/src/frames"
)

// Realtime event types the relay acts on
const (
	EventSessionCreated   = "session.created"
	EventSessionUpdated   = "session.updated"
	EventAudioDelta       = "response.audio.delta"
	EventSpeechStarted    = "input_audio_buffer.speech_started"
	EventItemCreated      = "conversation.item.created"
	EventResponseCreated  = "response.created"
	EventResponseDone     = "response.done"
	EventError            = "error"
	CommandSessionUpdate  = "session.update"
	CommandAppendAudio    = "input_audio_buffer.append"
	CommandCancelResponse = "response.cancel"
)

// RealtimeFrameSerializer handles the OpenAI Realtime API event protocol
type RealtimeFrameSerializer struct{}

type realtimeSessionUpdate struct {
	Type    string               `json:"type"`
	Session frames.SessionConfig `json:"session"`
}

type realtimeAppend struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64-encoded audio in the session input format
}

type realtimeCancel struct {
	Type string `json:"type"`
}

// realtimeEvent is the union of the server event fields the relay reads
type realtimeEvent struct {
	Type         string                `json:"type"`
	EventID      string                `json:"event_id"`
	ResponseID   string                `json:"response_id"`
	ItemID       string                `json:"item_id"`
	Delta        string                `json:"delta"`
	AudioStartMs int                   `json:"audio_start_ms"`
	Session      *realtimeSession      `json:"session"`
	Item         *realtimeItem         `json:"item"`
	Response     *realtimeResponse     `json:"response"`
	Error        *realtimeErrorPayload `json:"error"`
}

type realtimeSession struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	frames.SessionConfig
}

type realtimeItem struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type realtimeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type realtimeErrorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewRealtimeFrameSerializer creates a new OpenAI Realtime serializer
func NewRealtimeFrameSerializer() *RealtimeFrameSerializer {
	return &RealtimeFrameSerializer{}
}

// Type returns the serialization type (Realtime uses JSON/text)
func (s *RealtimeFrameSerializer) Type() SerializerType {
	return SerializerTypeText
}

// Serialize converts a client command frame to Realtime JSON
func (s *RealtimeFrameSerializer) Serialize(frame frames.Frame) ([]byte, error) {
	var msg any

	switch f := frame.(type) {
	case *frames.SessionUpdateFrame:
		msg = realtimeSessionUpdate{Type: CommandSessionUpdate, Session: f.Session}
	case *frames.AppendAudioFrame:
		msg = realtimeAppend{Type: CommandAppendAudio, Audio: base64.StdEncoding.EncodeToString(f.Audio)}
	case *frames.ResponseCancelFrame:
		msg = realtimeCancel{Type: CommandCancelResponse}
	default:
		return nil, fmt.Errorf("realtime: %w: %s", ErrUnsupportedFrame, frame.Name())
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal realtime %s: %w", frame.Name(), err)
	}
	return data, nil
}

// Deserialize converts one Realtime server event to a frame
func (s *RealtimeFrameSerializer) Deserialize(data []byte) (frames.Frame, error) {
	var ev realtimeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("realtime: %w: %v", ErrMalformed, err)
	}

	switch ev.Type {
	case "":
		return nil, fmt.Errorf("realtime: %w: missing type field", ErrMalformed)

	case EventSessionCreated:
		if ev.Session == nil || ev.Session.ID == "" {
			return nil, fmt.Errorf("realtime: %w: session.created without session id", ErrMalformed)
		}
		f := frames.NewSessionCreatedFrame(ev.Session.ID)
		f.Model = ev.Session.Model
		return f, nil

	case EventSessionUpdated:
		f := frames.NewSessionUpdatedFrame("")
		if ev.Session != nil {
			f.SessionID = ev.Session.ID
			f.Session = ev.Session.SessionConfig
		}
		return f, nil

	case EventAudioDelta:
		audio, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			return nil, fmt.Errorf("realtime: %w: audio delta: %v", ErrMalformed, err)
		}
		f := frames.NewAudioDeltaFrame(ev.ResponseID, audio)
		f.ItemID = ev.ItemID
		return f, nil

	case EventSpeechStarted:
		return frames.NewSpeechStartedFrame(ev.AudioStartMs, ev.ItemID), nil

	case EventItemCreated:
		if ev.Item == nil {
			return frames.NewItemCreatedFrame("", ""), nil
		}
		return frames.NewItemCreatedFrame(ev.Item.ID, ev.Item.Role), nil

	case EventResponseCreated:
		if ev.Response == nil {
			return frames.NewResponseCreatedFrame(""), nil
		}
		return frames.NewResponseCreatedFrame(ev.Response.ID), nil

	case EventResponseDone:
		if ev.Response == nil {
			return frames.NewResponseDoneFrame("", ""), nil
		}
		return frames.NewResponseDoneFrame(ev.Response.ID, ev.Response.Status), nil

	case EventError:
		if ev.Error == nil {
			return frames.NewErrorEventFrame("", "", ""), nil
		}
		return frames.NewErrorEventFrame(ev.Error.Type, ev.Error.Code, ev.Error.Message), nil

	default:
		return frames.NewInfoFrame(ev.Type), nil
	}
}
