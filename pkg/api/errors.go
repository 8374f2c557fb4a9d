package api

import "errors"

var (
	errProgramNotFound = errors.New("program not found")
	errProbeNotFound   = errors.New("probe not found")
	errLogNotFound     = errors.New("log not found")
	errBadID           = errors.New("invalid identifier")
	errNoHistory       = errors.New("history is not recorded")
)
