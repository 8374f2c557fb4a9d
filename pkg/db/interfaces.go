// Package db pkg/db/interfaces.go
package db

import (
	"time"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/CNES/opensand-sub000/pkg/db Service

// Service represents all database operations.
type Service interface {
	Close() error

	// Program operations.

	UpsertProgram(program *ProgramRecord, probes []ProbeRecord) error
	ListPrograms() ([]ProgramRecord, error)
	GetProbes(fullID uint16) ([]ProbeRecord, error)

	// Data operations.

	StoreValues(values []ProbeValue) error
	StoreEvent(event *EventRecord) error
	GetProbeValues(fullID uint16, probeID uint8, limit int) ([]ProbeValue, error)
	GetEvents(fullID uint16, limit int) ([]EventRecord, error)

	// Maintenance operations.

	CleanOldData(retentionPeriod time.Duration) error
}
