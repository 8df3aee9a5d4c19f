package frames

// Telephony frames model the Twilio Media Streams envelopes.

// StreamConnectedFrame is the first message on a media stream, sent before start
type StreamConnectedFrame struct {
	*BaseFrame
	Protocol string
}

func NewStreamConnectedFrame(protocol string) *StreamConnectedFrame {
	return &StreamConnectedFrame{
		BaseFrame: newBaseFrame("StreamConnectedFrame"),
		Protocol:  protocol,
	}
}

// StreamStartFrame carries the identifiers announced by the "start" event
type StreamStartFrame struct {
	*BaseFrame
	StreamSid        string
	CallSid          string
	AccountSid       string
	CustomParameters map[string]string
}

func NewStreamStartFrame(streamSid, callSid string) *StreamStartFrame {
	return &StreamStartFrame{
		BaseFrame: newBaseFrame("StreamStartFrame"),
		StreamSid: streamSid,
		CallSid:   callSid,
	}
}

// InputAudioFrame is one chunk of caller audio from a "media" event
type InputAudioFrame struct {
	*BaseFrame
	StreamSid string
	Track     string
	Chunk     string
	Timestamp string
	Audio     []byte // decoded G.711 payload
}

func NewInputAudioFrame(streamSid string, audio []byte) *InputAudioFrame {
	return &InputAudioFrame{
		BaseFrame: newBaseFrame("InputAudioFrame"),
		StreamSid: streamSid,
		Audio:     audio,
	}
}

// StreamStopFrame signals that the telephony side ended the stream
type StreamStopFrame struct {
	*BaseFrame
	StreamSid string
	CallSid   string
}

func NewStreamStopFrame(streamSid string) *StreamStopFrame {
	return &StreamStopFrame{
		BaseFrame: newBaseFrame("StreamStopFrame"),
		StreamSid: streamSid,
	}
}

// MarkFrame is a playback marker, either sent to or echoed back by Twilio
type MarkFrame struct {
	*BaseFrame
	StreamSid string
	MarkName  string
}

func NewMarkFrame(streamSid, name string) *MarkFrame {
	return &MarkFrame{
		BaseFrame: newBaseFrame("MarkFrame"),
		StreamSid: streamSid,
		MarkName:  name,
	}
}

// OutputAudioFrame is synthesized audio written back to the caller
type OutputAudioFrame struct {
	*BaseFrame
	StreamSid string
	Audio     []byte
}

func NewOutputAudioFrame(streamSid string, audio []byte) *OutputAudioFrame {
	return &OutputAudioFrame{
		BaseFrame: newBaseFrame("OutputAudioFrame"),
		StreamSid: streamSid,
		Audio:     audio,
	}
}

// ClearFrame discards audio Twilio has buffered but not yet played
type ClearFrame struct {
	*BaseFrame
	StreamSid string
}

func NewClearFrame(streamSid string) *ClearFrame {
	return &ClearFrame{
		BaseFrame: newBaseFrame("ClearFrame"),
		StreamSid: streamSid,
	}
}
