package dispatch

import (
	"errors"
	"fmt"

	"github.com/dshills/relay/handler"
)

// ErrInvalidHandler is returned when a descriptor without a recognized
// kind is registered.
var ErrInvalidHandler = errors.New("handler kind not recognized")

// InvalidHandlerError carries the offending descriptor for diagnostics.
type InvalidHandlerError struct {
	Handler *handler.Handler
}

// Error implements the error interface.
func (e *InvalidHandlerError) Error() string {
	if e.Handler == nil {
		return "cannot register nil handler"
	}
	return fmt.Sprintf("cannot register handler %s: kind %q not recognized",
		e.Handler.ID(), e.Handler.Kind())
}

// Is allows errors.Is to match InvalidHandlerError with ErrInvalidHandler.
func (e *InvalidHandlerError) Is(target error) bool {
	return target == ErrInvalidHandler
}
