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
	"net"
	"net/netip"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

//go:generate mockgen -destination=mock_manager.go -package=manager github.com/CNES/opensand-sub000/pkg/manager PacketConn,Observer

// PacketConn is the part of *net.UDPConn the controller needs.
type PacketConn interface {
	ReadFromUDPAddrPort(b []byte) (int, netip.AddrPort, error)
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
	LocalAddr() net.Addr
	Close() error
}

// Observer receives the model changes and live data of a Controller.
// Callbacks run on the controller reader goroutine and must not block.
type Observer interface {
	ProgramListChanged()
	NewProbeValue(probe *Probe, timestamp uint32, value float64)
	NewLog(program *Program, name string, level wire.LogLevel, text string)
}
