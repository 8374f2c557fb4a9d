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
	"log"
	"net/netip"
	"os"
	"path/filepath"
	"slices"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

// Host is a machine running a daemon. It may be reachable through several
// addresses, each one holding a reference.
type Host struct {
	manager  *HostManager
	ident    uint8
	name     string
	addrs    []netip.AddrPort
	refCount int
	programs map[uint8]*Program
}

func newHost(m *HostManager, ident uint8, name string, addr netip.AddrPort) *Host {
	h := &Host{
		manager:  m,
		ident:    ident,
		name:     name,
		addrs:    []netip.AddrPort{addr},
		refCount: 1,
		programs: make(map[uint8]*Program),
	}
	h.createFolder()

	return h
}

func (h *Host) Name() string  { return h.name }
func (h *Host) Ident() uint8  { return h.ident }
func (h *Host) RefCount() int { return h.refCount }

// Address is the address the host registered with first.
func (h *Host) Address() netip.AddrPort {
	if len(h.addrs) == 0 {
		return netip.AddrPort{}
	}

	return h.addrs[0]
}

// Addresses lists every address registered for the host.
func (h *Host) Addresses() []netip.AddrPort {
	return slices.Clone(h.addrs)
}

// StoragePath returns the path of name inside the host folder.
func (h *Host) StoragePath(name string) string {
	return filepath.Join(h.manager.StoragePath(h.name), sanitize(name))
}

// AddProgram registers a program, or extends an existing one with the
// probes and logs it does not know yet.
func (h *Host) AddProgram(ident uint8, name string, probes []wire.ProbeInfo, logs []wire.LogInfo) *Program {
	if prog, ok := h.programs[ident]; ok {
		prog.addProbes(probes)
		prog.addLogs(logs)
		log.Printf("Added %d probe(s) and %d log(s) to program %s on host %s",
			len(probes), len(logs), name, h.name)

		return prog
	}

	prog := newProgram(h, ident, name)
	prog.addProbes(probes)
	prog.addLogs(logs)
	h.programs[ident] = prog

	log.Printf("Program %s was added to host %s with %d probe(s) and %d log(s)",
		name, h.name, len(prog.probes), len(prog.logs))

	return prog
}

// RemoveProgram drops a program and closes its files.
func (h *Host) RemoveProgram(ident uint8) bool {
	prog, ok := h.programs[ident]
	if !ok {
		log.Printf("Tried to remove program with ID %d not on host %s", ident, h.name)
		return false
	}

	prog.cleanup()
	delete(h.programs, ident)
	log.Printf("Program %s was removed from host %s", prog.name, h.name)

	return true
}

// Program returns the program with the given ident.
func (h *Host) Program(ident uint8) (*Program, bool) {
	p, ok := h.programs[ident]

	return p, ok
}

// Programs lists the host programs by ident.
func (h *Host) Programs() []*Program {
	out := make([]*Program, 0, len(h.programs))
	for _, p := range h.programs {
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b *Program) int { return int(a.ident) - int(b.ident) })

	return out
}

func (h *Host) createFolder() {
	path := h.manager.StoragePath(h.name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		log.Printf("Cannot create host folder %s: %v", path, err)
	}
}

func (h *Host) switchStorage() {
	h.createFolder()

	for _, p := range h.programs {
		p.switchStorage()
	}
}

func (h *Host) cleanup() {
	for _, p := range h.programs {
		p.cleanup()
	}
}

func (h *Host) restore() {
	h.createFolder()

	for _, p := range h.programs {
		p.restore()
	}
}

func (h *Host) String() string {
	return h.name
}
