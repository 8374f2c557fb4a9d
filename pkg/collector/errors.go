package collector

import "errors"

var (
	ErrStopped        = errors.New("collector engine stopped")
	ErrAlreadyStarted = errors.New("collector engine already started")
	errNotInitialized = errors.New("program not initialized")
	errNotManager     = errors.New("sender is not the active manager")
	errUnknownHost    = errors.New("datagram from unknown host")
)
