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

package registry

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

// EventLogFile is the per-program file collecting log messages.
const EventLogFile = "event_log.txt"

// Program is one process running on a host.
type Program struct {
	host        *Host
	ident       uint8
	name        string
	probes      map[uint8]*Probe
	logs        map[uint8]*Log
	eventFile   *os.File
	initialized bool

	// what the current manager has been told
	announced       bool
	announcedProbes map[uint8]bool
	announcedLogs   map[uint8]bool
}

func newProgram(h *Host, ident uint8, name string) *Program {
	p := &Program{
		host:            h,
		ident:           ident,
		name:            name,
		probes:          make(map[uint8]*Probe),
		logs:            make(map[uint8]*Log),
		announcedProbes: make(map[uint8]bool),
		announcedLogs:   make(map[uint8]bool),
	}
	p.setupStorage(false)

	return p
}

func (p *Program) Ident() uint8 { return p.ident }
func (p *Program) Name() string { return p.name }
func (p *Program) Host() *Host  { return p.host }

// FullName is "host.program", the name a manager shows.
func (p *Program) FullName() string {
	return p.host.name + "." + p.name
}

// FullID is the system-wide program key.
func (p *Program) FullID() uint16 {
	return wire.FullID(p.host.ident, p.ident)
}

// Initialized reports whether the program finished registering.
func (p *Program) Initialized() bool { return p.initialized }

func (p *Program) SetInitialized(v bool) { p.initialized = v }

func (p *Program) Probe(id uint8) (*Probe, bool) {
	pr, ok := p.probes[id]

	return pr, ok
}

func (p *Program) Log(id uint8) (*Log, bool) {
	l, ok := p.logs[id]

	return l, ok
}

// ProbeType resolves a probe id to its storage type; it fits wire.TypeLookup.
func (p *Program) ProbeType(id uint8) (wire.StorageType, bool) {
	pr, ok := p.probes[id]
	if !ok {
		return 0, false
	}

	return pr.typ, true
}

// Probes lists the probes by id.
func (p *Program) Probes() []*Probe {
	out := make([]*Probe, 0, len(p.probes))
	for _, pr := range p.probes {
		out = append(out, pr)
	}

	slices.SortFunc(out, func(a, b *Probe) int { return int(a.id) - int(b.id) })

	return out
}

// Logs lists the logs by id.
func (p *Program) Logs() []*Log {
	out := make([]*Log, 0, len(p.logs))
	for _, l := range p.logs {
		out = append(out, l)
	}

	slices.SortFunc(out, func(a, b *Log) int { return int(a.id) - int(b.id) })

	return out
}

// StoragePath returns the path of name inside the program folder.
func (p *Program) StoragePath(name string) string {
	return filepath.Join(p.host.StoragePath(p.name), sanitize(name))
}

// Attributes describes the whole program for a manager.
func (p *Program) Attributes() *wire.ProgramRegistration {
	return p.registration(false)
}

// Unannounced describes only the probes and logs the current manager has
// not been told about yet.
func (p *Program) Unannounced() *wire.ProgramRegistration {
	return p.registration(true)
}

func (p *Program) registration(onlyNew bool) *wire.ProgramRegistration {
	reg := &wire.ProgramRegistration{
		HostID:    p.host.ident,
		ProgramID: p.ident,
		FullName:  p.FullName(),
	}

	for _, pr := range p.Probes() {
		if onlyNew && p.announcedProbes[pr.id] {
			continue
		}

		reg.Probes = append(reg.Probes, pr.Info())
	}

	for _, l := range p.Logs() {
		if onlyNew && p.announcedLogs[l.id] {
			continue
		}

		reg.Logs = append(reg.Logs, l.Info())
	}

	return reg
}

// Announced reports whether the current manager knows the program.
func (p *Program) Announced() bool { return p.announced }

// MarkAnnounced records that the manager received reg.
func (p *Program) MarkAnnounced(reg *wire.ProgramRegistration) {
	p.announced = true

	for _, pr := range reg.Probes {
		p.announcedProbes[pr.ID] = true
	}

	for _, l := range reg.Logs {
		p.announcedLogs[l.ID] = true
	}
}

// ResetAnnounced forgets everything sent to the manager.
func (p *Program) ResetAnnounced() {
	p.announced = false
	clear(p.announcedProbes)
	clear(p.announcedLogs)
}

// WriteEvent appends a log line stamped with the collector clock.
func (p *Program) WriteEvent(ident, text string) {
	if p.eventFile == nil {
		return
	}

	at := p.host.manager.now()
	ts := float64(at.UnixNano()) / float64(time.Second)

	if _, err := fmt.Fprintf(p.eventFile, "%.6f %s %s\n", ts, ident, text); err != nil {
		log.Printf("Cannot write event for %s: %v", p.FullName(), err)
	}
}

func (p *Program) addProbes(infos []wire.ProbeInfo) {
	for _, info := range infos {
		if _, ok := p.probes[info.ID]; ok {
			continue
		}

		log.Printf("Add probe %s with id %d in %s", info.Name, info.ID, p.name)
		p.probes[info.ID] = newProbe(p, info)
	}
}

func (p *Program) addLogs(infos []wire.LogInfo) {
	for _, info := range infos {
		if _, ok := p.logs[info.ID]; ok {
			continue
		}

		log.Printf("Add log %s with id %d in %s", info.Name, info.ID, p.name)
		p.logs[info.ID] = newLog(p, info)
	}
}

func (p *Program) setupStorage(appendMode bool) {
	dir := p.host.StoragePath(p.name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("Cannot create program folder %s: %v", dir, err)
		return
	}

	path := filepath.Join(dir, EventLogFile)

	f, err := openStorageFile(path, appendMode)
	if err != nil {
		log.Printf("Cannot open log file: %v", err)
		return
	}

	p.eventFile = f
}

func (p *Program) closeEventFile() {
	if p.eventFile != nil {
		_ = p.eventFile.Close()
		p.eventFile = nil
	}
}

func (p *Program) switchStorage() {
	p.closeEventFile()
	p.setupStorage(false)

	for _, pr := range p.probes {
		pr.switchStorage()
	}
}

func (p *Program) cleanup() {
	p.closeEventFile()

	for _, pr := range p.probes {
		pr.cleanup()
	}
}

// restore reopens the files of a program whose host came back. The daemon
// starts over, so the program waits for REGISTER_END again and is announced
// anew.
func (p *Program) restore() {
	p.initialized = false
	p.ResetAnnounced()
	p.setupStorage(true)

	for _, pr := range p.probes {
		pr.restore()
	}
}

func (p *Program) String() string {
	return p.name
}

func openStorageFile(path string, appendMode bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	return os.OpenFile(path, flags, 0o644)
}
