package document

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMetadata indicates registration input was rejected.
	ErrInvalidMetadata = errors.New("invalid document metadata")
	// ErrUnknownDocument indicates the document id is not registered.
	ErrUnknownDocument = errors.New("unknown document")
	// ErrInvalidTransition indicates the event is not legal from the current status.
	ErrInvalidTransition = errors.New("invalid document status transition")
	// ErrInvalidEvent indicates a malformed adapter event.
	ErrInvalidEvent = fmt.Errorf("%w: malformed event", ErrInvalidTransition)
)
