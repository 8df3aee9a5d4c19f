package frames

// Realtime frames model the OpenAI Realtime API commands and server events.

// SessionConfig is the "session" object of a session.update command
type SessionConfig struct {
	InputAudioFormat  string   `json:"input_audio_format,omitempty"`
	OutputAudioFormat string   `json:"output_audio_format,omitempty"`
	Voice             string   `json:"voice,omitempty"`
	Instructions      string   `json:"instructions,omitempty"`
	Modalities        []string `json:"modalities,omitempty"`
	Temperature       float64  `json:"temperature"`
}

// SessionUpdateFrame configures a freshly opened realtime session
type SessionUpdateFrame struct {
	*BaseFrame
	Session SessionConfig
}

func NewSessionUpdateFrame(session SessionConfig) *SessionUpdateFrame {
	return &SessionUpdateFrame{
		BaseFrame: newBaseFrame("SessionUpdateFrame"),
		Session:   session,
	}
}

// AppendAudioFrame appends caller audio to the session input buffer
type AppendAudioFrame struct {
	*BaseFrame
	Audio []byte
}

func NewAppendAudioFrame(audio []byte) *AppendAudioFrame {
	return &AppendAudioFrame{
		BaseFrame: newBaseFrame("AppendAudioFrame"),
		Audio:     audio,
	}
}

// ResponseCancelFrame stops the in-flight response
type ResponseCancelFrame struct {
	*BaseFrame
}

func NewResponseCancelFrame() *ResponseCancelFrame {
	return &ResponseCancelFrame{
		BaseFrame: newBaseFrame("ResponseCancelFrame"),
	}
}

// SessionCreatedFrame acknowledges a new session
type SessionCreatedFrame struct {
	*BaseFrame
	SessionID string
	Model     string
}

func NewSessionCreatedFrame(sessionID string) *SessionCreatedFrame {
	return &SessionCreatedFrame{
		BaseFrame: newBaseFrame("SessionCreatedFrame"),
		SessionID: sessionID,
	}
}

// SessionUpdatedFrame acknowledges a session.update
type SessionUpdatedFrame struct {
	*BaseFrame
	SessionID string
	Session   SessionConfig
}

func NewSessionUpdatedFrame(sessionID string) *SessionUpdatedFrame {
	return &SessionUpdatedFrame{
		BaseFrame: newBaseFrame("SessionUpdatedFrame"),
		SessionID: sessionID,
	}
}

// AudioDeltaFrame is an incremental chunk of synthesized speech
type AudioDeltaFrame struct {
	*BaseFrame
	ResponseID string
	ItemID     string
	Audio      []byte
}

func NewAudioDeltaFrame(responseID string, audio []byte) *AudioDeltaFrame {
	return &AudioDeltaFrame{
		BaseFrame:  newBaseFrame("AudioDeltaFrame"),
		ResponseID: responseID,
		Audio:      audio,
	}
}

// SpeechStartedFrame is the server VAD barge-in signal
type SpeechStartedFrame struct {
	*BaseFrame
	AudioStartMs int
	ItemID       string
}

func NewSpeechStartedFrame(audioStartMs int, itemID string) *SpeechStartedFrame {
	return &SpeechStartedFrame{
		BaseFrame:    newBaseFrame("SpeechStartedFrame"),
		AudioStartMs: audioStartMs,
		ItemID:       itemID,
	}
}

// ItemCreatedFrame reports a conversation.item.created event
type ItemCreatedFrame struct {
	*BaseFrame
	ItemID string
	Role   string
}

func NewItemCreatedFrame(itemID, role string) *ItemCreatedFrame {
	return &ItemCreatedFrame{
		BaseFrame: newBaseFrame("ItemCreatedFrame"),
		ItemID:    itemID,
		Role:      role,
	}
}

// ResponseCreatedFrame reports that the model started a new response
type ResponseCreatedFrame struct {
	*BaseFrame
	ResponseID string
}

func NewResponseCreatedFrame(responseID string) *ResponseCreatedFrame {
	return &ResponseCreatedFrame{
		BaseFrame:  newBaseFrame("ResponseCreatedFrame"),
		ResponseID: responseID,
	}
}

// ResponseDoneFrame reports the end of a response, cancelled or not
type ResponseDoneFrame struct {
	*BaseFrame
	ResponseID string
	Status     string
}

func NewResponseDoneFrame(responseID, status string) *ResponseDoneFrame {
	return &ResponseDoneFrame{
		BaseFrame:  newBaseFrame("ResponseDoneFrame"),
		ResponseID: responseID,
		Status:     status,
	}
}

// ErrorEventFrame is an "error" event reported by the provider
type ErrorEventFrame struct {
	*BaseFrame
	Type    string
	Code    string
	Message string
}

func NewErrorEventFrame(errType, code, message string) *ErrorEventFrame {
	return &ErrorEventFrame{
		BaseFrame: newBaseFrame("ErrorEventFrame"),
		Type:      errType,
		Code:      code,
		Message:   message,
	}
}

// InfoFrame stands for any server event with no transport side effect
type InfoFrame struct {
	*BaseFrame
	EventType string
}

func NewInfoFrame(eventType string) *InfoFrame {
	return &InfoFrame{
		BaseFrame: newBaseFrame("InfoFrame"),
		EventType: eventType,
	}
}
