/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package manager

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

// Program is the manager view of a program running on a collector host.
type Program struct {
	hostID   uint8
	ident    uint8
	hostName string
	name     string

	mu     sync.RWMutex
	probes map[uint8]*Probe
	logs   map[uint8]*Log
}

// NewProgram builds a program model outside of any controller, as a saved
// run or a replayed registration would.
func NewProgram(reg *wire.ProgramRegistration) *Program {
	p := newProgram(reg.HostID, reg.ProgramID, reg.FullName)
	p.merge(reg)

	return p
}

func newProgram(hostID, ident uint8, fullName string) *Program {
	hostName, name, ok := strings.Cut(fullName, ".")
	if !ok {
		name = fullName
	}

	return &Program{
		hostID:   hostID,
		ident:    ident,
		hostName: hostName,
		name:     name,
		probes:   make(map[uint8]*Probe),
		logs:     make(map[uint8]*Log),
	}
}

func (p *Program) HostID() uint8    { return p.hostID }
func (p *Program) Ident() uint8     { return p.ident }
func (p *Program) HostName() string { return p.hostName }
func (p *Program) Name() string     { return p.name }
func (p *Program) FullID() uint16   { return wire.FullID(p.hostID, p.ident) }
func (p *Program) String() string   { return p.FullName() }

// FullName is "<host>.<program>".
func (p *Program) FullName() string {
	if p.hostName == "" {
		return p.name
	}

	return p.hostName + "." + p.name
}

// Probe returns the probe with the given id.
func (p *Program) Probe(id uint8) (*Probe, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pr, ok := p.probes[id]

	return pr, ok
}

// ProbeByName looks a probe up by its name.
func (p *Program) ProbeByName(name string) (*Probe, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, pr := range p.probes {
		if pr.name == name {
			return pr, true
		}
	}

	return nil, false
}

// Log returns the log with the given id.
func (p *Program) Log(id uint8) (*Log, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	l, ok := p.logs[id]

	return l, ok
}

// Probes lists the probes ordered by id.
func (p *Program) Probes() []*Probe {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := slices.Collect(maps.Values(p.probes))
	slices.SortFunc(out, func(a, b *Probe) int { return int(a.id) - int(b.id) })

	return out
}

// Logs lists the logs ordered by id.
func (p *Program) Logs() []*Log {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := slices.Collect(maps.Values(p.logs))
	slices.SortFunc(out, func(a, b *Log) int { return int(a.id) - int(b.id) })

	return out
}

func (p *Program) probeType(id uint8) (wire.StorageType, bool) {
	pr, ok := p.Probe(id)
	if !ok {
		return 0, false
	}

	return pr.typ, true
}

// merge adds the probes and logs of a REGISTER_PROGRAM chunk. Known probes
// take the flags reported by the collector.
func (p *Program) merge(reg *wire.ProgramRegistration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, info := range reg.Probes {
		if pr, ok := p.probes[info.ID]; ok {
			pr.enabled, pr.displayed = info.Enabled, info.Displayed
			continue
		}

		p.probes[info.ID] = &Probe{
			program:   p,
			id:        info.ID,
			name:      info.Name,
			unit:      info.Unit,
			typ:       info.Type,
			enabled:   info.Enabled,
			displayed: info.Displayed,
		}
	}

	for _, info := range reg.Logs {
		if l, ok := p.logs[info.ID]; ok {
			l.level = info.Level
			continue
		}

		p.logs[info.ID] = &Log{program: p, id: info.ID, name: info.Name, level: info.Level}
	}
}

// Probe is the manager view of a probe. Enabled, Displayed and the log
// level are guarded by the owning program.
type Probe struct {
	program *Program
	id      uint8
	name    string
	unit    string
	typ     wire.StorageType

	enabled   bool
	displayed bool
}

func (p *Probe) ID() uint8              { return p.id }
func (p *Probe) Name() string           { return p.name }
func (p *Probe) Unit() string           { return p.unit }
func (p *Probe) Type() wire.StorageType { return p.typ }
func (p *Probe) Program() *Program      { return p.program }
func (p *Probe) String() string         { return p.name }

// FullName is "<host>.<program>.<probe>".
func (p *Probe) FullName() string {
	return fmt.Sprintf("%s.%s", p.program.FullName(), p.name)
}

// GlobalID is the probe id prefixed by its program ident.
func (p *Probe) GlobalID() uint16 {
	return uint16(p.program.ident)<<8 | uint16(p.id)
}

func (p *Probe) Enabled() bool {
	p.program.mu.RLock()
	defer p.program.mu.RUnlock()

	return p.enabled
}

func (p *Probe) Displayed() bool {
	p.program.mu.RLock()
	defer p.program.mu.RUnlock()

	return p.displayed
}

// Status is the wire form of the enabled and displayed flags.
func (p *Probe) Status() wire.ProbeStatus {
	return wire.NewProbeStatus(p.Enabled(), p.Displayed())
}

func (p *Probe) setStatus(enabled, displayed bool) {
	p.program.mu.Lock()
	defer p.program.mu.Unlock()

	p.enabled, p.displayed = enabled, displayed
}

// Log is the manager view of an event stream.
type Log struct {
	program *Program
	id      uint8
	name    string
	level   wire.LogLevel
}

func (l *Log) ID() uint8         { return l.id }
func (l *Log) Name() string      { return l.name }
func (l *Log) Program() *Program { return l.program }
func (l *Log) String() string    { return l.name }

func (l *Log) Level() wire.LogLevel {
	l.program.mu.RLock()
	defer l.program.mu.RUnlock()

	return l.level
}

func (l *Log) setLevel(level wire.LogLevel) {
	l.program.mu.Lock()
	defer l.program.mu.Unlock()

	l.level = level
}
