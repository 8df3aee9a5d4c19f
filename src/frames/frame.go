package frames

import (
	"fmt"
	"sync/atomic"
	"time"
)

var frameCounter uint64

// FrameDirection indicates which way a frame travels through a call
type FrameDirection int

const (
	Inbound  FrameDirection = iota // Telephony -> AI session
	Outbound                       // AI session -> telephony
)

func (d FrameDirection) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Frame is the closed set of messages exchanged with the telephony
// stream and the AI realtime session. Only types in this package
// implement it; dispatch on a Frame is a type switch over those types.
type Frame interface {
	ID() uint64
	Name() string
	PTS() time.Time
	String() string

	isFrame()
}

// BaseFrame provides common frame functionality
type BaseFrame struct {
	id   uint64
	name string
	pts  time.Time
}

func newBaseFrame(name string) *BaseFrame {
	return &BaseFrame{
		id:   atomic.AddUint64(&frameCounter, 1),
		name: name,
		pts:  time.Now(),
	}
}

func (f *BaseFrame) ID() uint64 {
	return f.id
}

func (f *BaseFrame) Name() string {
	return f.name
}

func (f *BaseFrame) PTS() time.Time {
	return f.pts
}

func (f *BaseFrame) String() string {
	return fmt.Sprintf("%s[id=%d, pts=%v]", f.name, f.id, f.pts.Format("15:04:05.000"))
}

func (f *BaseFrame) isFrame() {}
