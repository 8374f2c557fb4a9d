package registry

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

// Probe is a typed numeric metric exported by a program.
type Probe struct {
	program   *Program
	id        uint8
	name      string
	unit      string
	typ       wire.StorageType
	enabled   bool
	displayed bool
	file      *os.File
}

func newProbe(p *Program, info wire.ProbeInfo) *Probe {
	pr := &Probe{
		program: p,
		id:      info.ID,
		name:    strings.TrimSpace(info.Name),
		unit:    strings.TrimSpace(info.Unit),
		typ:     info.Type,
		enabled: info.Enabled,
	}
	pr.createFile(false)

	return pr
}

func (p *Probe) ID() uint8              { return p.id }
func (p *Probe) Name() string           { return p.name }
func (p *Probe) Unit() string           { return p.unit }
func (p *Probe) Type() wire.StorageType { return p.typ }
func (p *Probe) Enabled() bool          { return p.enabled }
func (p *Probe) Displayed() bool        { return p.displayed }
func (p *Probe) Program() *Program      { return p.program }
func (p *Probe) String() string         { return p.name }

// Path is the probe log file.
func (p *Probe) Path() string {
	return p.program.StoragePath(p.name + ".log")
}

// Info describes the probe for a manager registration.
func (p *Probe) Info() wire.ProbeInfo {
	return wire.ProbeInfo{
		ID:        p.id,
		Name:      p.name,
		Unit:      p.unit,
		Type:      p.typ,
		Enabled:   p.enabled,
		Displayed: p.displayed,
	}
}

// SaveValue appends "<timestamp> <value>" to the probe file.
func (p *Probe) SaveValue(timestamp uint32, value float64) {
	if p.file == nil {
		return
	}

	if _, err := fmt.Fprintf(p.file, "%d %s\n", timestamp, wire.FormatValue(p.typ, value)); err != nil {
		log.Printf("Cannot save value of probe %s: %v", p.name, err)
	}
}

func (p *Probe) createFile(appendMode bool) {
	path := p.Path()

	f, err := openStorageFile(path, appendMode)
	if err != nil {
		log.Printf("Cannot open probe file: %v", err)
		return
	}

	p.file = f

	if appendMode {
		return
	}

	if _, err := fmt.Fprintf(f, "%s\n", p.unit); err != nil {
		log.Printf("Cannot write unit of probe %s: %v", p.name, err)
	}
}

func (p *Probe) cleanup() {
	if p.file != nil {
		_ = p.file.Close()
		p.file = nil
	}
}

func (p *Probe) switchStorage() {
	p.cleanup()
	p.createFile(false)
}

func (p *Probe) restore() {
	p.createFile(true)
}

// Log is a leveled event stream exported by a program.
type Log struct {
	program *Program
	id      uint8
	name    string
	level   wire.LogLevel
}

func newLog(p *Program, info wire.LogInfo) *Log {
	return &Log{
		program: p,
		id:      info.ID,
		name:    strings.TrimSpace(info.Name),
		level:   info.Level,
	}
}

func (l *Log) ID() uint8            { return l.id }
func (l *Log) Name() string         { return l.name }
func (l *Log) Level() wire.LogLevel { return l.level }
func (l *Log) Program() *Program    { return l.program }
func (l *Log) String() string       { return l.name }

func (l *Log) Info() wire.LogInfo {
	return wire.LogInfo{ID: l.id, Name: l.name, Level: l.level}
}

// Save writes a message to the program event file.
func (l *Log) Save(text string) {
	l.program.WriteEvent(l.name, text)
}
