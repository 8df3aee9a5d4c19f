package processors

import (
	"context"
	"errors"
)

// ErrStreamNotStarted is reported when AI audio or a clear must be sent
// before the telephony stream announced its stream sid.
var ErrStreamNotStarted = errors.New("telephony stream not started")

// Relay moves frames in one direction for the lifetime of a call
type Relay interface {
	// Name returns the relay name
	Name() string

	// Run blocks until the source channel ends. A clean end of the call
	// returns nil.
	Run(ctx context.Context) error
}
