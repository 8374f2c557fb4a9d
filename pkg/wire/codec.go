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
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"strconv"
)

// StorageType tells how a probe value is packed on the wire.
type StorageType uint8

const (
	Int32    StorageType = 0
	Float32  StorageType = 1
	Double64 StorageType = 2
)

// Valid reports whether t is a known storage type.
func (t StorageType) Valid() bool {
	return t <= Double64
}

// Size is the width of a value of type t in bytes.
func (t StorageType) Size() int {
	if t == Double64 {
		return 8
	}

	return 4
}

func (t StorageType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Double64:
		return "double"
	default:
		return fmt.Sprintf("storage(%d)", uint8(t))
	}
}

// FormatValue renders a value the way probe log files store it.
func FormatValue(t StorageType, v float64) string {
	switch t {
	case Int32:
		return strconv.FormatInt(int64(int32(v)), 10)
	case Float32:
		return strconv.FormatFloat(v, 'f', -1, 32)
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

const (
	flagEnabled   = 0x80
	flagDisplayed = 0x40
)

// PackType folds the probe flags into the storage type byte. Daemons never
// set displayed.
func PackType(t StorageType, enabled, displayed bool) uint8 {
	b := uint8(t)
	if enabled {
		b |= flagEnabled
	}

	if displayed {
		b |= flagDisplayed
	}

	return b
}

// UnpackDaemonType decodes the byte sent by a daemon, where only bit 7 is a flag.
func UnpackDaemonType(b uint8) (StorageType, bool, error) {
	t := StorageType(b &^ flagEnabled)
	if !t.Valid() {
		return 0, false, fmt.Errorf("%w: %d", ErrUnknownStorageType, t)
	}

	return t, b&flagEnabled != 0, nil
}

// UnpackType decodes the byte sent by a collector, which carries both flags.
func UnpackType(b uint8) (t StorageType, enabled, displayed bool, err error) {
	t = StorageType(b &^ (flagEnabled | flagDisplayed))
	if !t.Valid() {
		return 0, false, false, fmt.Errorf("%w: %d", ErrUnknownStorageType, t)
	}

	return t, b&flagEnabled != 0, b&flagDisplayed != 0, nil
}

// ParseHeader checks the magic and splits off the command.
func ParseHeader(b []byte) (Command, []byte, error) {
	if len(b) < HeaderLen {
		return 0, nil, ErrShortHeader
	}

	if binary.BigEndian.Uint32(b) != Magic {
		return 0, nil, ErrBadMagic
	}

	return Command(b[4]), b[HeaderLen:], nil
}

// Writer appends fields to a datagram.
type Writer struct {
	buf []byte
}

// NewMessage starts a datagram carrying cmd.
func NewMessage(cmd Command) *Writer {
	buf := make([]byte, HeaderLen, 64)
	binary.BigEndian.PutUint32(buf, Magic)
	buf[4] = byte(cmd)

	return &Writer{buf: buf}
}

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// PutString writes a length-prefixed string, truncating past 255 bytes.
func (w *Writer) PutString(s string) {
	if len(s) > MaxStringLen {
		log.Printf("Warning: truncating %d byte string %.32q... to %d bytes", len(s), s, MaxStringLen)
		s = s[:MaxStringLen]
	}

	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
}

// PutText appends raw bytes with no length prefix; they run to the end of
// the datagram.
func (w *Writer) PutText(s string) {
	w.buf = append(w.buf, s...)
}

// PutValue packs v according to t.
func (w *Writer) PutValue(t StorageType, v float64) error {
	switch t {
	case Int32:
		w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(int32(v)))
	case Float32:
		w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(float32(v)))
	case Double64:
		w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
	default:
		return fmt.Errorf("%w: %d", ErrUnknownStorageType, t)
	}

	return nil
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes fields from a payload.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(payload []byte) *Reader {
	return &Reader{buf: payload}
}

func (r *Reader) need(n int) error {
	if len(r.buf)-r.pos < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.pos, len(r.buf)-r.pos)
	}

	return nil
}

func (r *Reader) ReadU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}

	v := r.buf[r.pos]
	r.pos++

	return v, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4

	return v, nil
}

// ReadString reads a length-prefixed string.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU8()
	if err != nil {
		return "", err
	}

	if err := r.need(int(n)); err != nil {
		return "", err
	}

	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)

	return s, nil
}

// ReadValue unpacks a value of type t.
func (r *Reader) ReadValue(t StorageType) (float64, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownStorageType, t)
	}

	if err := r.need(t.Size()); err != nil {
		return 0, err
	}

	b := r.buf[r.pos:]
	r.pos += t.Size()

	switch t {
	case Int32:
		return float64(int32(binary.BigEndian.Uint32(b))), nil
	case Float32:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	default:
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
}

// Rest consumes and returns everything left.
func (r *Reader) Rest() string {
	s := string(r.buf[r.pos:])
	r.pos = len(r.buf)

	return s
}

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done fails when the payload has not been fully consumed.
func (r *Reader) Done() error {
	if r.pos != len(r.buf) {
		return fmt.Errorf("%w: %d left", ErrTrailingBytes, len(r.buf)-r.pos)
	}

	return nil
}
