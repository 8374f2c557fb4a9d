// Package errors pkg/db/errors.go provides errors for the db package.

package db

import "errors"

var (
	// Core database errors.

	ErrFailedOpenDB      = errors.New("failed to open database")
	ErrFailedToEnableWAL = errors.New("failed to enable WAL mode")
	ErrFailedToInit      = errors.New("failed to initialize schema")

	// Operation errors.

	ErrFailedToClean   = errors.New("failed to clean")
	ErrFailedToBeginTx = errors.New("failed to begin transaction")
	ErrFailedToScan    = errors.New("failed to scan")
	ErrFailedToQuery   = errors.New("failed to query")
	ErrFailedToInsert  = errors.New("failed to insert")
	ErrRecorderStopped = errors.New("recorder stopped")
)
