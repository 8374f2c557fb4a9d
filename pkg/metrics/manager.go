package metrics

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const defaultLogSize = 500

// LogEntry is one event line received from the collector.
type LogEntry struct {
	Program  string    `json:"program"`
	Name     string    `json:"name"`
	Level    string    `json:"level"`
	Text     string    `json:"text"`
	Received time.Time `json:"received"`
}

// Manager keeps the recent values of every probe and the recent log lines.
// It is a manager.Observer.
type Manager struct {
	size   int
	now    func() time.Time
	probes sync.Map // probe full name -> PointStore
	active int64    // atomic count of probes with data

	mu      sync.RWMutex
	logs    []LogEntry
	logNext int
	logFull bool
}

// NewManager keeps size points per probe.
func NewManager(size int) *Manager {
	log.Printf("Creating metrics manager keeping %d points per probe", size)

	return &Manager{
		size: size,
		now:  time.Now,
		logs: make([]LogEntry, defaultLogSize),
	}
}

func (*Manager) ProgramListChanged() {}

func (m *Manager) NewProbeValue(probe *manager.Probe, timestamp uint32, value float64) {
	store, loaded := m.probes.LoadOrStore(probe.FullName(), NewBuffer(m.size))
	if !loaded {
		atomic.AddInt64(&m.active, 1)
	}

	store.(PointStore).Add(Point{Timestamp: timestamp, Value: value, Received: m.now()})
}

func (m *Manager) NewLog(program *manager.Program, name string, level wire.LogLevel, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs[m.logNext] = LogEntry{
		Program:  program.FullName(),
		Name:     name,
		Level:    level.String(),
		Text:     text,
		Received: m.now(),
	}

	m.logNext = (m.logNext + 1) % len(m.logs)
	if m.logNext == 0 {
		m.logFull = true
	}
}

// Points returns the recent values of a probe, oldest first.
func (m *Manager) Points(probe string) []Point {
	store, ok := m.probes.Load(probe)
	if !ok {
		return nil
	}

	return store.(PointStore).Points()
}

// Last returns the newest value of a probe.
func (m *Manager) Last(probe string) (Point, bool) {
	store, ok := m.probes.Load(probe)
	if !ok {
		return Point{}, false
	}

	return store.(PointStore).Last()
}

// Logs returns the recent log lines, oldest first.
func (m *Manager) Logs() []LogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.logFull {
		return append([]LogEntry(nil), m.logs[:m.logNext]...)
	}

	out := make([]LogEntry, 0, len(m.logs))
	out = append(out, m.logs[m.logNext:]...)

	return append(out, m.logs[:m.logNext]...)
}

// ActiveProbes is the number of probes that received at least one value.
func (m *Manager) ActiveProbes() int64 {
	return atomic.LoadInt64(&m.active)
}
