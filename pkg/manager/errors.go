package manager

import "errors"

var (
	ErrNoCollector     = errors.New("no collector registered")
	ErrDisplayDisabled = errors.New("cannot display a disabled probe")
	ErrClosed          = errors.New("controller closed")
	ErrBadRunData      = errors.New("incorrect probe data")
	errUnknownProgram  = errors.New("unknown program")
	errUnknownSource   = errors.New("datagram from unknown source")
)
