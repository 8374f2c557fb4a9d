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

package wire

import (
	"fmt"
	"log"
)

// ProbeInfo describes one probe in a registration.
type ProbeInfo struct {
	ID        uint8
	Name      string
	Unit      string
	Type      StorageType
	Enabled   bool
	Displayed bool
}

// LogInfo describes one log (event) stream in a registration.
type LogInfo struct {
	ID    uint8
	Name  string
	Level LogLevel
}

// Registration is the body of REGISTER_INIT, REGISTER_LIVE and REGISTER_END.
type Registration struct {
	ProgramID uint8
	Name      string
	Probes    []ProbeInfo
	Logs      []LogInfo
}

// ProgramRegistration is the body of MGR_REGISTER_PROGRAM.
type ProgramRegistration struct {
	HostID    uint8
	ProgramID uint8
	FullName  string
	Probes    []ProbeInfo
	Logs      []LogInfo
}

// FullID joins a host and a program ident into the system-wide program key.
func FullID(hostID, programID uint8) uint16 {
	return uint16(hostID)<<8 | uint16(programID)
}

// SplitID is the inverse of FullID.
func SplitID(id uint16) (hostID, programID uint8) {
	return uint8(id >> 8), uint8(id)
}

// EncodeRegistration builds a daemon registration datagram.
func EncodeRegistration(cmd Command, reg *Registration) ([]byte, error) {
	w := NewMessage(cmd)
	w.PutU8(reg.ProgramID)
	w.PutU8(uint8(len(reg.Probes)))
	w.PutU8(uint8(len(reg.Logs)))
	w.PutString(reg.Name)

	for _, p := range reg.Probes {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: probe %q", ErrUnknownStorageType, p.Name)
		}

		w.PutU8(p.ID)
		w.PutU8(PackType(p.Type, p.Enabled, false))
		w.PutString(p.Name)
		w.PutString(p.Unit)
	}

	for _, l := range reg.Logs {
		w.PutU8(l.ID)
		w.PutU8(uint8(l.Level))
		w.PutString(l.Name)
	}

	return w.Bytes(), nil
}

// DecodeRegistration parses a daemon registration payload. Nothing is
// returned unless the whole payload is consistent.
func DecodeRegistration(payload []byte) (*Registration, error) {
	r := NewReader(payload)

	progID, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	nprobes, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	nlogs, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	reg := &Registration{
		ProgramID: progID,
		Name:      name,
		Probes:    make([]ProbeInfo, 0, nprobes),
		Logs:      make([]LogInfo, 0, nlogs),
	}

	for i := 0; i < int(nprobes); i++ {
		p, err := readProbe(r, false)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}

		reg.Probes = append(reg.Probes, p)
	}

	for i := 0; i < int(nlogs); i++ {
		l, err := readLog(r)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}

		reg.Logs = append(reg.Logs, l)
	}

	if err := r.Done(); err != nil {
		return nil, err
	}

	return reg, nil
}

func readProbe(r *Reader, withDisplayed bool) (ProbeInfo, error) {
	var p ProbeInfo

	id, err := r.ReadU8()
	if err != nil {
		return p, err
	}

	flags, err := r.ReadU8()
	if err != nil {
		return p, err
	}

	if withDisplayed {
		p.Type, p.Enabled, p.Displayed, err = UnpackType(flags)
	} else {
		p.Type, p.Enabled, err = UnpackDaemonType(flags)
	}

	if err != nil {
		return p, err
	}

	p.ID = id

	if p.Name, err = r.ReadString(); err != nil {
		return p, err
	}

	if p.Unit, err = r.ReadString(); err != nil {
		return p, err
	}

	return p, nil
}

func readLog(r *Reader) (LogInfo, error) {
	var l LogInfo

	id, err := r.ReadU8()
	if err != nil {
		return l, err
	}

	level, err := r.ReadU8()
	if err != nil {
		return l, err
	}

	name, err := r.ReadString()
	if err != nil {
		return l, err
	}

	return LogInfo{ID: id, Name: name, Level: LogLevel(level)}, nil
}

func stringSize(s string) int {
	return 1 + min(len(s), MaxStringLen)
}

func probeSize(p *ProbeInfo) int {
	return 2 + stringSize(p.Name) + stringSize(p.Unit)
}

func logSize(l *LogInfo) int {
	return 2 + stringSize(l.Name)
}

// EncodeProgramRegistration builds one or more MGR_REGISTER_PROGRAM
// datagrams no larger than maxSize. Each datagram carries the next run of
// probes, then logs, with its own counts.
func EncodeProgramRegistration(p *ProgramRegistration, maxSize int) ([][]byte, error) {
	base := HeaderLen + 4 + stringSize(p.FullName)
	probes, logs := p.Probes, p.Logs

	var out [][]byte

	for {
		size := base

		np := 0
		for np < len(probes) && np < 255 && size+probeSize(&probes[np]) <= maxSize {
			size += probeSize(&probes[np])
			np++
		}

		nl := 0
		if np == len(probes) {
			for nl < len(logs) && nl < 255 && size+logSize(&logs[nl]) <= maxSize {
				size += logSize(&logs[nl])
				nl++
			}
		}

		if size > maxSize || (np == 0 && nl == 0 && len(probes)+len(logs) > 0) {
			return nil, fmt.Errorf("%w: %d bytes for program %q", ErrDatagramTooSmall, maxSize, p.FullName)
		}

		w := NewMessage(MgrRegisterProgram)
		w.PutU8(p.HostID)
		w.PutU8(p.ProgramID)
		w.PutU8(uint8(np))
		w.PutU8(uint8(nl))
		w.PutString(p.FullName)

		for i := range probes[:np] {
			pr := &probes[i]
			w.PutU8(pr.ID)
			w.PutU8(PackType(pr.Type, pr.Enabled, pr.Displayed))
			w.PutString(pr.Name)
			w.PutString(pr.Unit)
		}

		for i := range logs[:nl] {
			w.PutU8(logs[i].ID)
			w.PutU8(uint8(logs[i].Level))
			w.PutString(logs[i].Name)
		}

		out = append(out, w.Bytes())
		probes, logs = probes[np:], logs[nl:]

		if len(probes) == 0 && len(logs) == 0 {
			break
		}
	}

	if len(out) > 1 {
		log.Printf("Program %s registration split into %d datagrams", p.FullName, len(out))
	}

	return out, nil
}

// DecodeProgramRegistration parses one MGR_REGISTER_PROGRAM payload.
func DecodeProgramRegistration(payload []byte) (*ProgramRegistration, error) {
	r := NewReader(payload)

	var head [4]uint8
	for i := range head {
		v, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		head[i] = v
	}

	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}

	reg := &ProgramRegistration{
		HostID:    head[0],
		ProgramID: head[1],
		FullName:  name,
		Probes:    make([]ProbeInfo, 0, head[2]),
		Logs:      make([]LogInfo, 0, head[3]),
	}

	for i := 0; i < int(head[2]); i++ {
		p, err := readProbe(r, true)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}

		reg.Probes = append(reg.Probes, p)
	}

	for i := 0; i < int(head[3]); i++ {
		l, err := readLog(r)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}

		reg.Logs = append(reg.Logs, l)
	}

	if err := r.Done(); err != nil {
		return nil, err
	}

	return reg, nil
}

// Sample is one (probe id, value) pair of a SEND_PROBES batch.
type Sample struct {
	ProbeID uint8
	Value   float64
}

// TypeLookup resolves the registered storage type of a probe id.
type TypeLookup func(probeID uint8) (StorageType, bool)

// ReadSamples consumes (probe id, value) pairs until the payload is exhausted.
func ReadSamples(r *Reader, lookup TypeLookup) ([]Sample, error) {
	var samples []Sample

	for r.Remaining() > 0 {
		id, err := r.ReadU8()
		if err != nil {
			return nil, err
		}

		t, ok := lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProbe, id)
		}

		v, err := r.ReadValue(t)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", id, err)
		}

		samples = append(samples, Sample{ProbeID: id, Value: v})
	}

	return samples, nil
}

// PutSamples writes pairs using the same lookup as ReadSamples.
func (w *Writer) PutSamples(samples []Sample, lookup TypeLookup) error {
	for _, s := range samples {
		t, ok := lookup(s.ProbeID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownProbe, s.ProbeID)
		}

		w.PutU8(s.ProbeID)

		if err := w.PutValue(t, s.Value); err != nil {
			return err
		}
	}

	return nil
}
