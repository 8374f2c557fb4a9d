package api

import (
	"time"

	"github.com/CNES/opensand-sub000/pkg/manager"
)

type ProbeView struct {
	ID        uint8  `json:"id"`
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Type      string `json:"type"`
	Enabled   bool   `json:"enabled"`
	Displayed bool   `json:"displayed"`
}

type LogView struct {
	ID    uint8  `json:"id"`
	Name  string `json:"name"`
	Level string `json:"level"`
}

type ProgramView struct {
	FullID    uint16      `json:"full_id"`
	HostID    uint8       `json:"host_id"`
	ProgramID uint8       `json:"program_id"`
	Host      string      `json:"host"`
	Name      string      `json:"name"`
	Probes    []ProbeView `json:"probes"`
	Logs      []LogView   `json:"logs"`
}

type SystemStatus struct {
	Functional   bool      `json:"functional"`
	Collector    string    `json:"collector,omitempty"`
	Programs     int       `json:"programs"`
	ActiveProbes int64     `json:"active_probes"`
	Clients      int       `json:"clients"`
	LastUpdate   time.Time `json:"last_update"`
}

// ProbeStatusRequest is the body of a probe status update.
type ProbeStatusRequest struct {
	Enabled   bool `json:"enabled"`
	Displayed bool `json:"displayed"`
}

// LogLevelRequest is the body of a log level update; Level is a name such as
// "warning".
type LogLevelRequest struct {
	Level string `json:"level"`
}

// ToggleRequest is the body of the logs and syslog switches.
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type TransferResponse struct {
	Dir string `json:"dir"`
}

func newProgramView(p *manager.Program) ProgramView {
	view := ProgramView{
		FullID:    p.FullID(),
		HostID:    p.HostID(),
		ProgramID: p.Ident(),
		Host:      p.HostName(),
		Name:      p.Name(),
		Probes:    []ProbeView{},
		Logs:      []LogView{},
	}

	for _, probe := range p.Probes() {
		view.Probes = append(view.Probes, ProbeView{
			ID:        probe.ID(),
			Name:      probe.Name(),
			Unit:      probe.Unit(),
			Type:      probe.Type().String(),
			Enabled:   probe.Enabled(),
			Displayed: probe.Displayed(),
		})
	}

	for _, l := range p.Logs() {
		view.Logs = append(view.Logs, LogView{ID: l.ID(), Name: l.Name(), Level: l.Level().String()})
	}

	return view
}
