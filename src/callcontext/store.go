// Package callcontext keeps the free-text issue registered for a call until
// the call's media stream claims it.
package callcontext

import (
	"context"
	"errors"
)

// ErrEmptyCallSid is returned by Put when no call identifier is given
var ErrEmptyCallSid = errors.New("empty call sid")

// Store maps a call identifier to the issue text registered for it.
//
// TakeIfPresent removes the entry it returns; for any callSid at most one
// caller observes a stored value.
type Store interface {
	Put(ctx context.Context, callSid, issue string) error
	TakeIfPresent(ctx context.Context, callSid string) (string, bool, error)
}
