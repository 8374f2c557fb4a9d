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
	"log"
	"net/netip"

	"github.com/CNES/opensand-sub000/pkg/registry"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

func (e *Engine) handleDaemon(host *registry.Host, from netip.AddrPort, cmd wire.Command, payload []byte) {
	switch cmd {
	case wire.RegisterInit, wire.RegisterLive, wire.RegisterEnd:
		e.handleRegister(host, from, cmd, payload)
	case wire.Unregister:
		e.handleUnregister(host, payload)
	case wire.Relay:
		e.handleRelay(host, payload)
	case wire.Ack:
		log.Printf("Unexpected %s from host %s", cmd, host)
	default:
		log.Printf("Unknown command %s from host %s", cmd, host)
	}
}

func (e *Engine) handleRegister(host *registry.Host, from netip.AddrPort, cmd wire.Command, payload []byte) {
	reg, err := wire.DecodeRegistration(payload)
	if err != nil {
		log.Printf("Bad %s message from host %s: %v", cmd, host, err)
		return
	}

	prog := host.AddProgram(reg.ProgramID, reg.Name, reg.Probes, reg.Logs)

	if cmd == wire.RegisterEnd {
		prog.SetInitialized(true)
		log.Printf("Program %s is initialized", prog.FullName())
	}

	e.announce(prog)

	if cmd != wire.RegisterLive {
		e.send(from, wire.NewMessage(wire.Ack).Bytes())
	}
}

func (e *Engine) handleUnregister(host *registry.Host, payload []byte) {
	r := wire.NewReader(payload)

	progID, err := r.ReadU8()
	if err == nil {
		err = r.Done()
	}

	if err != nil {
		log.Printf("Bad %s message from host %s: %v", wire.Unregister, host, err)
		return
	}

	if !host.RemoveProgram(progID) {
		return
	}

	w := wire.NewMessage(wire.MgrUnregisterProgram)
	w.PutU8(host.Ident())
	w.PutU8(progID)
	e.sendToManager(w.Bytes())
}

func (e *Engine) handleRelay(host *registry.Host, payload []byte) {
	r := wire.NewReader(payload)

	progID, err := r.ReadU8()
	if err != nil {
		log.Printf("Bad %s message from host %s: %v", wire.Relay, host, err)
		return
	}

	sub, err := r.ReadU8()
	if err != nil {
		log.Printf("Bad %s message from host %s: %v", wire.Relay, host, err)
		return
	}

	prog, ok := host.Program(progID)
	if !ok {
		log.Printf("%s for unknown program %d on host %s", wire.Command(sub), progID, host)
		return
	}

	switch wire.Command(sub) {
	case wire.SendProbes:
		e.handleSendProbes(prog, r)
	case wire.SendLog:
		e.handleSendLog(prog, r)
	default:
		log.Printf("Unexpected relayed command %s from %s", wire.Command(sub), prog.FullName())
	}
}

func (e *Engine) handleSendProbes(prog *registry.Program, r *wire.Reader) {
	timestamp, err := r.ReadU32()
	if err != nil {
		log.Printf("Bad %s message from %s: %v", wire.SendProbes, prog.FullName(), err)
		return
	}

	samples, err := wire.ReadSamples(r, prog.ProbeType)
	if err != nil {
		log.Printf("Bad %s message from %s: %v", wire.SendProbes, prog.FullName(), err)
		return
	}

	var displayed []wire.Sample

	for _, s := range samples {
		probe, _ := prog.Probe(s.ProbeID)
		probe.SaveValue(timestamp, s.Value)

		if probe.Displayed() {
			displayed = append(displayed, s)
		}
	}

	if len(displayed) == 0 || !prog.Initialized() {
		return
	}

	w := wire.NewMessage(wire.MgrSendProbes)
	w.PutU8(prog.Host().Ident())
	w.PutU8(prog.Ident())
	w.PutU32(timestamp)

	if err := w.PutSamples(displayed, prog.ProbeType); err != nil {
		log.Printf("Cannot relay probes of %s: %v", prog.FullName(), err)
		return
	}

	e.sendToManager(w.Bytes())
}

func (e *Engine) handleSendLog(prog *registry.Program, r *wire.Reader) {
	logID, err := r.ReadU8()
	if err != nil {
		log.Printf("Bad %s message from %s: %v", wire.SendLog, prog.FullName(), err)
		return
	}

	level, err := r.ReadU8()
	if err != nil {
		log.Printf("Bad %s message from %s: %v", wire.SendLog, prog.FullName(), err)
		return
	}

	text := r.Rest()

	l, ok := prog.Log(logID)
	if !ok {
		log.Printf("%s for unknown log %d in %s", wire.SendLog, logID, prog.FullName())
		return
	}

	l.Save(text)

	w := wire.NewMessage(wire.MgrSendLog)
	w.PutU8(prog.Host().Ident())
	w.PutU8(prog.Ident())
	w.PutU8(logID)
	w.PutU8(level)

	if room := wire.MaxDatagramSize - w.Len(); len(text) > room {
		text = text[:room]
	}

	w.PutText(text)
	e.sendToManager(w.Bytes())
}

// announce tells the manager about the probes and logs of prog it has not
// seen yet.
func (e *Engine) announce(prog *registry.Program) {
	if _, ok := e.Manager(); !ok {
		return
	}

	reg := prog.Unannounced()
	if prog.Announced() && len(reg.Probes) == 0 && len(reg.Logs) == 0 {
		return
	}

	chunks, err := wire.EncodeProgramRegistration(reg, wire.MaxDatagramSize)
	if err != nil {
		log.Printf("Cannot announce program %s: %v", prog.FullName(), err)
		return
	}

	for _, c := range chunks {
		if !e.sendToManager(c) {
			return
		}
	}

	prog.MarkAnnounced(reg)
}
