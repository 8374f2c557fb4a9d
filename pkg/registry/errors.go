package registry

import "errors"

var (
	ErrHostExists     = errors.New("host name already registered")
	ErrAddressInUse   = errors.New("host address already registered")
	ErrNoFreeIdent    = errors.New("no more available host idents")
	ErrUnknownHost    = errors.New("host not registered")
	ErrUnknownAddress = errors.New("address not registered for host")
	ErrUnknownProgram = errors.New("program not found")
	ErrUnknownProbe   = errors.New("probe not found")
	ErrUnknownLog     = errors.New("log not found")
	errStorage        = errors.New("failed to create storage folder")
)
