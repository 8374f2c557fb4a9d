package db

import "time"

// ProgramRecord is a program seen by the manager.
type ProgramRecord struct {
	FullID    uint16    `json:"full_id"`
	HostID    uint8     `json:"host_id"`
	ProgramID uint8     `json:"program_id"`
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// ProbeRecord describes one probe of a program.
type ProbeRecord struct {
	FullID      uint16 `json:"full_id"`
	ProbeID     uint8  `json:"probe_id"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	StorageType string `json:"storage_type"`
}

// ProbeValue is one stored probe sample.
type ProbeValue struct {
	FullID    uint16    `json:"full_id"`
	ProbeID   uint8     `json:"probe_id"`
	Timestamp uint32    `json:"timestamp"` // daemon clock
	Value     float64   `json:"value"`
	Received  time.Time `json:"received"`
}

// EventRecord is one stored log line.
type EventRecord struct {
	FullID   uint16    `json:"full_id"`
	Name     string    `json:"name"`
	Level    string    `json:"level"`
	Text     string    `json:"text"`
	Received time.Time `json:"received"`
}
