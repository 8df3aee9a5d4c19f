package processors

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
)

// CallSession is the state shared by the two relays of one call. The
// stream sid is written by the inbound relay and read by the outbound
// relay; both identifiers are write-once.
type CallSession struct {
	ID        string
	CallSid   string
	StartedAt time.Time

	mu          sync.Mutex
	streamSid   string
	aiSessionID string
	streamReady chan struct{}

	logger *logger.Logger
}

// NewCallSession creates the state for one call
func NewCallSession(callSid string) *CallSession {
	id := uuid.New().String()
	return &CallSession{
		ID:          id,
		CallSid:     callSid,
		StartedAt:   time.Now(),
		streamReady: make(chan struct{}),
		logger:      logger.WithPrefix("CallSession").WithField("call_sid", callSid).WithField("session", id),
	}
}

// SetStreamSid publishes the telephony stream sid. Only the first non-empty
// value is kept; it returns false if the sid was already set.
func (s *CallSession) SetStreamSid(streamSid string) bool {
	if streamSid == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamSid != "" {
		if s.streamSid != streamSid {
			s.logger.Warn("ignoring second stream sid %s (have %s)", streamSid, s.streamSid)
		}
		return false
	}
	s.streamSid = streamSid
	close(s.streamReady)
	return true
}

// StreamSid returns the stream sid and whether it has been published
func (s *CallSession) StreamSid() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSid, s.streamSid != ""
}

// StreamReady is closed once the stream sid is published
func (s *CallSession) StreamReady() <-chan struct{} {
	return s.streamReady
}

// SetAISessionID records the realtime session id. Only the first value is kept.
func (s *CallSession) SetAISessionID(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.aiSessionID != "" {
		return false
	}
	s.aiSessionID = id
	return true
}

// AISessionID returns the realtime session id, empty until session.created
func (s *CallSession) AISessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiSessionID
}
