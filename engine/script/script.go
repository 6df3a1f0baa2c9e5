// Package script runs the handlers behind scripted triggers.
//
// A handler is a named function. It receives the event arguments, minus the
// game reference, and returns two booleans: whether dispatch should continue
// and whether the action is allowed, in that order. Handlers run while an
// action or a timer job is in progress, so they must be fast and must not
// block.
package script

import (
	"errors"

	"github.com/nathoo/trogdor/engine/event"
)

var (
	// ErrNoFunction is returned when the named handler is not defined.
	ErrNoFunction = errors.New("script function not defined")
	// ErrBadReturn is returned when a handler does not return two booleans.
	ErrBadReturn = errors.New("script function must return two booleans")
	// ErrClosed is returned by calls on a closed runtime.
	ErrClosed = errors.New("script runtime closed")
)

// Runtime calls scripted handlers by name.
type Runtime interface {
	Call(function string, args []event.Argument) (continueExecution, allowAction bool, err error)
}
