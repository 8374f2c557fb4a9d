package api

import (
	"context"
	"net/netip"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/metrics"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

//go:generate mockgen -destination=mock_api.go -package=api github.com/CNES/opensand-sub000/pkg/api Controller

// Controller is the part of *manager.Controller the API drives.
type Controller interface {
	Programs() []*manager.Program
	Program(fullID uint16) (*manager.Program, bool)
	Functional() bool
	Collector() (netip.AddrPort, bool)
	UpdateProbeStatus(probe *manager.Probe, enabled, displayed bool) error
	UpdateLogLevel(l *manager.Log, level wire.LogLevel) error
	EnableLogs(prog *manager.Program, enabled bool) error
	EnableSyslog(prog *manager.Program, enabled bool) error
	TransferFromCollector(ctx context.Context, dest string) error
}

// LiveData serves the recent probe values and log lines.
type LiveData interface {
	Points(probe string) []metrics.Point
	Logs() []metrics.LogEntry
	ActiveProbes() int64
}
