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

// Package registry pkg/registry/hosts.go tracks the hosts, programs, probes
// and logs known to a collector along with their on-disk storage.
package registry

import (
	"fmt"
	"log"
	"net/netip"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

const (
	// FullIdent is returned by newIdent when every host ident is taken.
	FullIdent = 255

	storagePattern = "*_opensand_collector"
)

// HostManager is the registry root. It is not safe for concurrent use: the
// collector event loop is its only caller.
type HostManager struct {
	tempDir string
	root    string
	now     func() time.Time

	byName  map[string]*Host
	byAddr  map[netip.AddrPort]*Host
	byID    map[uint8]*Host
	removed []*Host
}

// Option configures a HostManager.
type Option func(*HostManager)

// WithTempDir sets the parent folder of the storage roots.
func WithTempDir(dir string) Option {
	return func(m *HostManager) {
		m.tempDir = dir
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *HostManager) {
		m.now = now
	}
}

// NewHostManager creates an empty registry with a fresh storage folder.
func NewHostManager(opts ...Option) (*HostManager, error) {
	m := &HostManager{
		now:    time.Now,
		byName: make(map[string]*Host),
		byAddr: make(map[netip.AddrPort]*Host),
		byID:   make(map[uint8]*Host),
	}

	for _, opt := range opts {
		opt(m)
	}

	root, err := os.MkdirTemp(m.tempDir, storagePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errStorage, err)
	}

	m.root = root
	log.Printf("Initialized storage folder at %s", root)

	return m, nil
}

// NormalizeAddr strips IPv4-in-IPv6 mapping so that addresses compare equal
// whatever socket family they came from.
func NormalizeAddr(addr netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(name)
}

// StoragePath returns the path of name inside the storage root.
func (m *HostManager) StoragePath(name string) string {
	return filepath.Join(m.root, sanitize(name))
}

// Root is the current storage folder.
func (m *HostManager) Root() string {
	return m.root
}

// AddHost registers a host. A host of the same name that was removed
// earlier gets its ident and files back. Idents of removed hosts are only
// handed to other hosts once every other ident is live.
func (m *HostManager) AddHost(name string, addr netip.AddrPort) (*Host, error) {
	addr = NormalizeAddr(addr)

	if _, ok := m.byName[name]; ok {
		log.Printf("Host name %s is already registered, ignoring", name)
		return nil, fmt.Errorf("%w: %s", ErrHostExists, name)
	}

	if _, ok := m.byAddr[addr]; ok {
		log.Printf("Host address %s is already registered, ignoring", addr)
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, addr)
	}

	var host *Host

	for i, h := range m.removed {
		if h.name == name {
			host = h
			m.removed = slices.Delete(m.removed, i, i+1)
			host.addrs = []netip.AddrPort{addr}
			host.refCount = 1
			host.restore()

			break
		}
	}

	if host == nil {
		ident := m.newIdent()
		if ident == FullIdent && len(m.removed) > 0 {
			// the oldest removed host gives its ident up
			oldest := m.removed[0]
			m.removed = m.removed[1:]
			ident = int(oldest.ident)

			log.Printf("Reclaiming ident %d of removed host %s", ident, oldest.name)
		}

		if ident == FullIdent {
			log.Printf("Unable to add host %s: no more available IDs", name)
			return nil, fmt.Errorf("%w: %s", ErrNoFreeIdent, name)
		}

		host = newHost(m, uint8(ident), name, addr)
	}

	m.byName[name] = host
	m.byAddr[addr] = host
	m.byID[host.ident] = host

	log.Printf("Host %s (%s) registered with ident %d", name, addr, host.ident)

	return host, nil
}

// AddHostAddr registers an extra address for a known host.
func (m *HostManager) AddHostAddr(name string, addr netip.AddrPort) error {
	addr = NormalizeAddr(addr)

	host, ok := m.byName[name]
	if !ok {
		log.Printf("Host name %s is not registered, ignoring", name)
		return fmt.Errorf("%w: %s", ErrUnknownHost, name)
	}

	if _, ok := m.byAddr[addr]; ok {
		log.Printf("Host address %s is already registered, ignoring", addr)
		return fmt.Errorf("%w: %s", ErrAddressInUse, addr)
	}

	host.refCount++
	host.addrs = append(host.addrs, addr)
	m.byAddr[addr] = host

	log.Printf("Host %s has an extra address %s", name, addr)

	return nil
}

// RemoveHost drops one reference to a host. The host leaves the active
// indexes once no reference remains; its data stays on disk.
func (m *HostManager) RemoveHost(name string) error {
	host, ok := m.byName[name]
	if !ok {
		log.Printf("Host name %s is not registered, ignoring", name)
		return fmt.Errorf("%w: %s", ErrUnknownHost, name)
	}

	host.refCount--
	if host.refCount > 0 {
		log.Printf("Host %s is unregistering (%d references left)", name, host.refCount)
		return nil
	}

	for _, addr := range host.addrs {
		delete(m.byAddr, addr)
	}

	delete(m.byName, name)
	delete(m.byID, host.ident)
	host.addrs = nil
	host.cleanup()
	m.removed = append(m.removed, host)

	log.Printf("Host %s is unregistered", name)

	return nil
}

// RemoveHostAddr drops one address of a host and the reference it holds.
// Removing the last address removes the host.
func (m *HostManager) RemoveHostAddr(name string, addr netip.AddrPort) error {
	addr = NormalizeAddr(addr)

	host, ok := m.byName[name]
	if !ok {
		log.Printf("Host name %s is not registered, ignoring", name)
		return fmt.Errorf("%w: %s", ErrUnknownHost, name)
	}

	i := slices.Index(host.addrs, addr)
	if i < 0 {
		log.Printf("Address %s is not registered for host %s, ignoring", addr, name)
		return fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
	}

	if host.refCount <= 1 {
		return m.RemoveHost(name)
	}

	host.addrs = slices.Delete(host.addrs, i, i+1)
	host.refCount--
	delete(m.byAddr, addr)

	log.Printf("Host %s dropped address %s (%d references left)", name, addr, host.refCount)

	return nil
}

// Host returns the host owning addr.
func (m *HostManager) Host(addr netip.AddrPort) (*Host, bool) {
	h, ok := m.byAddr[NormalizeAddr(addr)]

	return h, ok
}

// HostByID returns the live host with the given ident.
func (m *HostManager) HostByID(id uint8) (*Host, bool) {
	h, ok := m.byID[id]

	return h, ok
}

// HostByName returns the live host with the given name.
func (m *HostManager) HostByName(name string) (*Host, bool) {
	h, ok := m.byName[name]

	return h, ok
}

// HostAddress returns the primary address of a live host.
func (m *HostManager) HostAddress(id uint8) (netip.AddrPort, bool) {
	h, ok := m.byID[id]
	if !ok {
		log.Printf("Host with ID %d not found in HostAddress", id)
		return netip.AddrPort{}, false
	}

	return h.Address(), true
}

// Program looks up a program by host and program ident.
func (m *HostManager) Program(hostID, programID uint8) (*Program, error) {
	h, ok := m.byID[hostID]
	if !ok {
		return nil, fmt.Errorf("%w: ident %d", ErrUnknownHost, hostID)
	}

	p, ok := h.programs[programID]
	if !ok {
		return nil, fmt.Errorf("%w: %d on host %s", ErrUnknownProgram, programID, h.name)
	}

	return p, nil
}

// SetProbeStatus updates a probe's flags. The owning host is returned only
// when the enabled flag changed and the daemon has to be told.
func (m *HostManager) SetProbeStatus(hostID, programID, probeID uint8, enabled, displayed bool) *Host {
	prog, err := m.Program(hostID, programID)
	if err != nil {
		log.Printf("SetProbeStatus: %v", err)
		return nil
	}

	probe, ok := prog.probes[probeID]
	if !ok {
		log.Printf("SetProbeStatus: %v: %d in %s", ErrUnknownProbe, probeID, prog.FullName())
		return nil
	}

	changed := probe.enabled != enabled
	probe.enabled = enabled
	probe.displayed = displayed

	if changed {
		return prog.host
	}

	return nil
}

// SetLogLevel updates a log's display level and returns the owning host.
func (m *HostManager) SetLogLevel(hostID, programID, logID uint8, level wire.LogLevel) *Host {
	prog, err := m.Program(hostID, programID)
	if err != nil {
		log.Printf("SetLogLevel: %v", err)
		return nil
	}

	l, ok := prog.logs[logID]
	if !ok {
		log.Printf("SetLogLevel: %v: %d in %s", ErrUnknownLog, logID, prog.FullName())
		return nil
	}

	l.level = level

	return prog.host
}

// IsInitialized reports whether REGISTER_END was received for the program.
func (m *HostManager) IsInitialized(hostID, programID uint8) bool {
	prog, err := m.Program(hostID, programID)
	if err != nil {
		log.Printf("IsInitialized: %v", err)
		return false
	}

	return prog.initialized
}

// UnregManager forgets what was announced to the previous manager.
func (m *HostManager) UnregManager() {
	for _, prog := range m.AllPrograms() {
		prog.ResetAnnounced()
	}
}

// SwitchStorage moves every live entity to a new storage folder and returns
// the previous one. Removed hosts are forgotten.
func (m *HostManager) SwitchStorage() (string, error) {
	root, err := os.MkdirTemp(m.tempDir, storagePattern)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errStorage, err)
	}

	m.removed = nil
	previous := m.root
	m.root = root

	log.Printf("Initialized new storage folder at %s", root)

	for _, h := range m.hosts() {
		h.switchStorage()
	}

	return previous, nil
}

// AllPrograms lists programs of live hosts ordered by host then program ident.
func (m *HostManager) AllPrograms() []*Program {
	var out []*Program

	for _, h := range m.hosts() {
		out = append(out, h.Programs()...)
	}

	return out
}

// Hosts lists live hosts ordered by ident.
func (m *HostManager) Hosts() []*Host {
	return m.hosts()
}

func (m *HostManager) hosts() []*Host {
	out := make([]*Host, 0, len(m.byID))
	for _, h := range m.byID {
		out = append(out, h)
	}

	slices.SortFunc(out, func(a, b *Host) int { return int(a.ident) - int(b.ident) })

	return out
}

// Close releases every file and removes the storage folder.
func (m *HostManager) Close() error {
	for _, h := range m.byName {
		h.cleanup()
	}

	m.byName = make(map[string]*Host)
	m.byAddr = make(map[netip.AddrPort]*Host)
	m.byID = make(map[uint8]*Host)
	m.removed = nil

	return os.RemoveAll(m.root)
}

// newIdent returns the lowest ident used by neither a live nor a removed
// host, or FullIdent.
func (m *HostManager) newIdent() int {
	used := make(map[uint8]bool, len(m.byID)+len(m.removed))
	for id := range m.byID {
		used[id] = true
	}

	for _, h := range m.removed {
		used[h.ident] = true
	}

	for i := 0; i < FullIdent; i++ {
		if !used[uint8(i)] {
			return i
		}
	}

	return FullIdent
}
