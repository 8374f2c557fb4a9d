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

package collector

import (
	"fmt"
	"log"
	"net/netip"
	"slices"
	"time"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

func (e *Engine) handleManager(cmd wire.Command, payload []byte, from netip.AddrPort) {
	switch cmd {
	case wire.MgrRegister:
		e.registerManager(from)
	case wire.MgrUnregister:
		e.unregisterManager(from)
	case wire.MgrStatus:
		if mgr, ok := e.Manager(); ok && mgr == from {
			select {
			case e.managerOK <- struct{}{}:
			default:
			}
		}
	case wire.MgrSetProbeStatus, wire.MgrSetLogLevel, wire.MgrSetLogsStatus, wire.MgrSetSyslogStatus:
		if err := e.handleControl(cmd, payload, from); err != nil {
			log.Printf("Ignoring %s from %s: %v", cmd, from, err)
		}
	default:
		log.Printf("Unexpected manager command %s from %s", cmd, from)
	}
}

// registerManager makes addr the active manager, or queues it when another
// one is active.
func (e *Engine) registerManager(addr netip.AddrPort) {
	e.mu.Lock()

	if e.manager.IsValid() && e.manager != addr {
		if !slices.Contains(e.pending, addr) {
			e.pending = append(e.pending, addr)
		}

		active := e.manager
		e.mu.Unlock()

		log.Printf("Manager %s queued, %s is still active", addr, active)

		return
	}

	e.manager = addr
	startLiveness := !e.livenessRunning
	e.livenessRunning = true
	e.mu.Unlock()

	log.Printf("Manager %s registered", addr)

	e.hosts.UnregManager()
	e.send(addr, wire.NewMessage(wire.MgrRegisterAck).Bytes())

	for _, prog := range e.hosts.AllPrograms() {
		e.announce(prog)
	}

	if startLiveness {
		e.liveness.Add(1)

		go e.livenessLoop()
	}
}

func (e *Engine) unregisterManager(addr netip.AddrPort) {
	e.mu.Lock()

	if e.manager == addr {
		e.manager = netip.AddrPort{}
		next, ok := e.popPendingLocked()
		e.mu.Unlock()

		log.Printf("Manager %s unregistered", addr)

		if ok {
			e.registerManager(next)
		}

		return
	}

	if i := slices.Index(e.pending, addr); i >= 0 {
		e.pending = slices.Delete(e.pending, i, i+1)
		log.Printf("Queued manager %s unregistered", addr)
	}

	e.mu.Unlock()
}

func (e *Engine) popPendingLocked() (netip.AddrPort, bool) {
	if len(e.pending) == 0 {
		return netip.AddrPort{}, false
	}

	next := e.pending[0]
	e.pending = e.pending[1:]

	return next, true
}

// promotePending activates the first queued manager when none is active.
func (e *Engine) promotePending() {
	e.mu.Lock()

	if e.manager.IsValid() {
		e.mu.Unlock()
		return
	}

	next, ok := e.popPendingLocked()
	e.mu.Unlock()

	if ok {
		log.Printf("Promoting queued manager %s", next)
		e.registerManager(next)
	}
}

// managerTimedOut drops mgr if it is still the active manager.
func (e *Engine) managerTimedOut(mgr netip.AddrPort) {
	e.mu.Lock()

	if e.manager != mgr {
		e.mu.Unlock()
		return
	}

	e.manager = netip.AddrPort{}
	e.mu.Unlock()

	log.Printf("Manager %s did not answer STATUS, considering it crashed", mgr)

	e.promotePending()
}

func (e *Engine) livenessLoop() {
	defer e.liveness.Done()

	ticker := time.NewTicker(e.statusInterval)
	defer ticker.Stop()

	timer := time.NewTimer(e.statusTimeout)
	timer.Stop()

	defer timer.Stop()

	status := wire.NewMessage(wire.MgrStatus).Bytes()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		mgr := e.manager
		waiting := len(e.pending) > 0
		e.mu.Unlock()

		if !mgr.IsValid() {
			if waiting {
				e.submit(e.promotePending)
			}

			continue
		}

		select {
		case <-e.managerOK:
		default:
		}

		e.send(mgr, status)

		timer.Reset(e.statusTimeout)

		select {
		case <-e.ctx.Done():
			return
		case <-e.managerOK:
			timer.Stop()
		case <-timer.C:
			e.submit(func() { e.managerTimedOut(mgr) })
		}
	}
}

// handleControl applies a manager command to an initialized program and
// relays it to the owning daemon.
func (e *Engine) handleControl(cmd wire.Command, payload []byte, from netip.AddrPort) error {
	if mgr, ok := e.Manager(); !ok || mgr != from {
		return errNotManager
	}

	r := wire.NewReader(payload)

	hostID, err := r.ReadU8()
	if err != nil {
		return err
	}

	progID, err := r.ReadU8()
	if err != nil {
		return err
	}

	if !e.hosts.IsInitialized(hostID, progID) {
		return fmt.Errorf("%w: %d.%d", errNotInitialized, hostID, progID)
	}

	switch cmd {
	case wire.MgrSetProbeStatus:
		return e.setProbeStatus(r, hostID, progID)
	case wire.MgrSetLogLevel:
		return e.setLogLevel(r, hostID, progID)
	case wire.MgrSetLogsStatus:
		return e.setHostToggle(r, hostID, progID, wire.EnableLogs, wire.DisableLogs)
	default:
		return e.setHostToggle(r, hostID, progID, wire.EnableSyslog, wire.DisableSyslog)
	}
}

func (e *Engine) setProbeStatus(r *wire.Reader, hostID, progID uint8) error {
	probeID, err := r.ReadU8()
	if err != nil {
		return err
	}

	status, err := r.ReadU8()
	if err != nil {
		return err
	}

	if err := r.Done(); err != nil {
		return err
	}

	enabled, displayed := wire.ProbeStatus(status).Flags()

	host := e.hosts.SetProbeStatus(hostID, progID, probeID, enabled, displayed)
	if host == nil {
		return nil
	}

	sub := wire.DisableProbe
	if enabled {
		sub = wire.EnableProbe
	}

	w := relay(progID, sub)
	w.PutU8(probeID)
	e.send(host.Address(), w.Bytes())

	return nil
}

func (e *Engine) setLogLevel(r *wire.Reader, hostID, progID uint8) error {
	logID, err := r.ReadU8()
	if err != nil {
		return err
	}

	level, err := r.ReadU8()
	if err != nil {
		return err
	}

	if err := r.Done(); err != nil {
		return err
	}

	host := e.hosts.SetLogLevel(hostID, progID, logID, wire.LogLevel(level))
	if host == nil {
		return nil
	}

	w := relay(progID, wire.SetLogLevel)
	w.PutU8(logID)
	w.PutU8(level)
	e.send(host.Address(), w.Bytes())

	return nil
}

func (e *Engine) setHostToggle(r *wire.Reader, hostID, progID uint8, on, off wire.Command) error {
	status, err := r.ReadU8()
	if err != nil {
		return err
	}

	if err := r.Done(); err != nil {
		return err
	}

	addr, ok := e.hosts.HostAddress(hostID)
	if !ok {
		return nil
	}

	sub := off
	if status != 0 {
		sub = on
	}

	e.send(addr, relay(progID, sub).Bytes())

	return nil
}

func relay(progID uint8, sub wire.Command) *wire.Writer {
	w := wire.NewMessage(wire.Relay)
	w.PutU8(progID)
	w.PutU8(uint8(sub))

	return w
}
