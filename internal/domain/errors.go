package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a request rejected before any fan-out.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoUsableSources signals that no requested source is known and enabled.
	ErrNoUsableSources = fmt.Errorf("%w: no usable sources", ErrInvalidRequest)
	// ErrPageOutOfRange signals a page outside the paginated range.
	ErrPageOutOfRange = fmt.Errorf("%w: page out of range", ErrInvalidRequest)

	// ErrSourceUnknown signals a source id absent from the registry.
	ErrSourceUnknown = errors.New("unknown source")
	// ErrSourceDisabled signals an administratively disabled source.
	ErrSourceDisabled = errors.New("source disabled")

	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
