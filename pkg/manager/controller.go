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

// Package manager pkg/manager/controller.go registers on a collector, keeps
// a model of the programs it reports and forwards live values to an observer.
package manager

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"net"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

const defaultDialTimeout = 5 * time.Second

// Controller is the manager side of the protocol.
type Controller struct {
	conn        PacketConn
	dialTimeout time.Duration

	mu           sync.RWMutex
	collectors   []netip.AddrPort
	transferPort int
	functional   bool
	programs     map[uint16]*Program
	observer     Observer

	startOnce sync.Once
	closeOnce sync.Once
	reader    sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver sets the initial observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithDialTimeout bounds the connection to the transfer server.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.dialTimeout = d
	}
}

// New creates a controller on top of an already bound socket.
func New(conn PacketConn, opts ...Option) *Controller {
	c := &Controller{
		conn:        conn,
		dialTimeout: defaultDialTimeout,
		programs:    make(map[uint16]*Program),
		observer:    nopObserver{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Listen binds a UDP socket on addr and creates a controller on it.
func Listen(addr string, opts ...Option) (*Controller, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return New(conn, opts...), nil
}

// Addr is the local address of the manager socket.
func (c *Controller) Addr() net.Addr {
	return c.conn.LocalAddr()
}

// SetObserver replaces the observer. A nil observer drops every event.
func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}

	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

func (c *Controller) currentObserver() Observer {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.observer
}

// RegisterOnCollector adds addr to the collector candidates. Only the first
// candidate is sent MGR_REGISTER; the others are addresses the collector
// may answer from.
func (c *Controller) RegisterOnCollector(addr netip.AddrPort, transferPort int) error {
	addr = netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())

	c.mu.Lock()

	if slices.Contains(c.collectors, addr) {
		c.mu.Unlock()
		return nil
	}

	c.collectors = append(c.collectors, addr)
	first := len(c.collectors) == 1

	var dropped bool

	if first {
		c.transferPort = transferPort
		dropped = c.dropProgramsLocked()
	}

	observer := c.observer
	c.mu.Unlock()

	if dropped {
		observer.ProgramListChanged()
	}

	c.startOnce.Do(func() {
		c.reader.Add(1)

		go c.readLoop()
	})

	if !first {
		log.Printf("Collector address %s added", addr)
		return nil
	}

	log.Printf("Registering on collector %s", addr)

	return c.send(addr, wire.NewMessage(wire.MgrRegister).Bytes())
}

// UnregisterOnCollector tells the primary collector to forget this manager.
func (c *Controller) UnregisterOnCollector() error {
	c.mu.Lock()

	if len(c.collectors) == 0 {
		c.mu.Unlock()
		return ErrNoCollector
	}

	primary := c.collectors[0]
	c.collectors = nil
	c.transferPort = 0
	c.functional = false
	dropped := c.dropProgramsLocked()
	observer := c.observer
	c.mu.Unlock()

	if dropped {
		observer.ProgramListChanged()
	}

	log.Printf("Unregistering from collector %s", primary)

	return c.send(primary, wire.NewMessage(wire.MgrUnregister).Bytes())
}

// dropProgramsLocked forgets the program model. A collector replays every
// program after MGR_REGISTER, so nothing from a previous session survives.
func (c *Controller) dropProgramsLocked() bool {
	if len(c.programs) == 0 {
		return false
	}

	c.programs = make(map[uint16]*Program)

	return true
}

// Functional reports whether the collector acknowledged the registration.
func (c *Controller) Functional() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.functional
}

// Collector returns the primary collector address.
func (c *Controller) Collector() (netip.AddrPort, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.collectors) == 0 {
		return netip.AddrPort{}, false
	}

	return c.collectors[0], true
}

// Programs lists the known programs ordered by full id.
func (c *Controller) Programs() []*Program {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := slices.Collect(maps.Values(c.programs))
	slices.SortFunc(out, func(a, b *Program) int { return int(a.FullID()) - int(b.FullID()) })

	return out
}

// Program looks a program up by its full id.
func (c *Controller) Program(fullID uint16) (*Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.programs[fullID]

	return p, ok
}

// Close shuts the socket and waits for the reader.
func (c *Controller) Close() error {
	var err error

	c.closeOnce.Do(func() {
		if cerr := c.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}

		c.reader.Wait()
	})

	return err
}

// UpdateProbeStatus asks the collector to enable, disable or display a probe.
func (c *Controller) UpdateProbeStatus(probe *Probe, enabled, displayed bool) error {
	if displayed && !enabled {
		return fmt.Errorf("%w: %s", ErrDisplayDisabled, probe.FullName())
	}

	prog := probe.Program()

	w := wire.NewMessage(wire.MgrSetProbeStatus)
	w.PutU8(prog.HostID())
	w.PutU8(prog.Ident())
	w.PutU8(probe.ID())
	w.PutU8(uint8(wire.NewProbeStatus(enabled, displayed)))

	if err := c.sendToCollector(w.Bytes()); err != nil {
		return err
	}

	probe.setStatus(enabled, displayed)

	return nil
}

// UpdateLogLevel sets the minimum level a daemon reports for a log.
func (c *Controller) UpdateLogLevel(l *Log, level wire.LogLevel) error {
	prog := l.Program()

	w := wire.NewMessage(wire.MgrSetLogLevel)
	w.PutU8(prog.HostID())
	w.PutU8(prog.Ident())
	w.PutU8(l.ID())
	w.PutU8(uint8(level))

	if err := c.sendToCollector(w.Bytes()); err != nil {
		return err
	}

	l.setLevel(level)

	return nil
}

// EnableLogs switches the event output of a program on or off.
func (c *Controller) EnableLogs(prog *Program, enabled bool) error {
	return c.sendToggle(wire.MgrSetLogsStatus, prog, enabled)
}

// EnableSyslog switches the syslog output of a program on or off.
func (c *Controller) EnableSyslog(prog *Program, enabled bool) error {
	return c.sendToggle(wire.MgrSetSyslogStatus, prog, enabled)
}

func (c *Controller) sendToggle(cmd wire.Command, prog *Program, enabled bool) error {
	var status uint8
	if enabled {
		status = 1
	}

	w := wire.NewMessage(cmd)
	w.PutU8(prog.HostID())
	w.PutU8(prog.Ident())
	w.PutU8(status)

	return c.sendToCollector(w.Bytes())
}

func (c *Controller) sendToCollector(data []byte) error {
	addr, ok := c.Collector()
	if !ok {
		return ErrNoCollector
	}

	return c.send(addr, data)
}

func (c *Controller) send(to netip.AddrPort, data []byte) error {
	if _, err := c.conn.WriteToUDPAddrPort(data, to); err != nil {
		return fmt.Errorf("failed to send to %s: %w", to, err)
	}

	return nil
}

func (c *Controller) readLoop() {
	defer c.reader.Done()

	buf := make([]byte, wire.MaxDatagramSize+1)

	for {
		n, from, err := c.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			log.Printf("Error reading manager socket: %v", err)

			continue
		}

		if n > wire.MaxDatagramSize {
			log.Printf("Warning: dropping oversized datagram from %s", from)
			continue
		}

		c.handleDatagram(buf[:n], netip.AddrPortFrom(from.Addr().Unmap(), from.Port()))
	}
}

func (c *Controller) isCollector(addr netip.AddrPort) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Contains(c.collectors, addr)
}

func (c *Controller) handleDatagram(data []byte, from netip.AddrPort) {
	cmd, payload, err := wire.ParseHeader(data)
	if err != nil {
		log.Printf("Dropping datagram from %s: %v", from, err)
		return
	}

	if !c.isCollector(from) {
		log.Printf("%v: %s sent %s", errUnknownSource, from, cmd)
		return
	}

	switch cmd {
	case wire.MgrRegisterAck:
		c.mu.Lock()
		c.functional = true
		c.mu.Unlock()

		log.Printf("Collector %s acknowledged the registration", from)
	case wire.MgrStatus:
		if err := c.send(from, wire.NewMessage(wire.MgrStatus).Bytes()); err != nil {
			log.Printf("Failed to answer STATUS: %v", err)
		}
	case wire.MgrRegisterProgram:
		err = c.handleRegisterProgram(payload)
	case wire.MgrUnregisterProgram:
		err = c.handleUnregisterProgram(payload)
	case wire.MgrSendProbes:
		err = c.handleSendProbes(payload)
	case wire.MgrSendLog:
		err = c.handleSendLog(payload)
	default:
		log.Printf("Unexpected command %s from collector %s", cmd, from)
	}

	if err != nil {
		log.Printf("Bad %s message from collector %s: %v", cmd, from, err)
	}
}

func (c *Controller) handleRegisterProgram(payload []byte) error {
	reg, err := wire.DecodeProgramRegistration(payload)
	if err != nil {
		return err
	}

	id := wire.FullID(reg.HostID, reg.ProgramID)

	c.mu.Lock()

	prog, ok := c.programs[id]
	if !ok {
		prog = newProgram(reg.HostID, reg.ProgramID, reg.FullName)
		c.programs[id] = prog
	}

	observer := c.observer
	c.mu.Unlock()

	prog.merge(reg)

	log.Printf("Program %s registered with %d probe(s) and %d log(s)",
		reg.FullName, len(reg.Probes), len(reg.Logs))

	observer.ProgramListChanged()

	return nil
}

func (c *Controller) handleUnregisterProgram(payload []byte) error {
	r := wire.NewReader(payload)

	hostID, err := r.ReadU8()
	if err != nil {
		return err
	}

	progID, err := r.ReadU8()
	if err != nil {
		return err
	}

	if err := r.Done(); err != nil {
		return err
	}

	id := wire.FullID(hostID, progID)

	c.mu.Lock()

	prog, ok := c.programs[id]
	delete(c.programs, id)

	observer := c.observer
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d.%d", errUnknownProgram, hostID, progID)
	}

	log.Printf("Program %s unregistered", prog.FullName())

	observer.ProgramListChanged()

	return nil
}

func (c *Controller) lookupProgram(r *wire.Reader) (*Program, error) {
	hostID, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	progID, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	prog, ok := c.Program(wire.FullID(hostID, progID))
	if !ok {
		return nil, fmt.Errorf("%w: %d.%d", errUnknownProgram, hostID, progID)
	}

	return prog, nil
}

func (c *Controller) handleSendProbes(payload []byte) error {
	r := wire.NewReader(payload)

	prog, err := c.lookupProgram(r)
	if err != nil {
		return err
	}

	timestamp, err := r.ReadU32()
	if err != nil {
		return err
	}

	samples, err := wire.ReadSamples(r, prog.probeType)
	if err != nil {
		return err
	}

	observer := c.currentObserver()

	for _, s := range samples {
		probe, _ := prog.Probe(s.ProbeID)
		observer.NewProbeValue(probe, timestamp, s.Value)
	}

	return nil
}

func (c *Controller) handleSendLog(payload []byte) error {
	r := wire.NewReader(payload)

	prog, err := c.lookupProgram(r)
	if err != nil {
		return err
	}

	logID, err := r.ReadU8()
	if err != nil {
		return err
	}

	level, err := r.ReadU8()
	if err != nil {
		return err
	}

	text := r.Rest()

	name := fmt.Sprintf("log %d", logID)
	if l, ok := prog.Log(logID); ok {
		name = l.Name()
	}

	c.currentObserver().NewLog(prog, name, wire.LogLevel(level), text)

	return nil
}
