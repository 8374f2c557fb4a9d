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

// Package wire pkg/wire/command.go holds the binary framing shared by the
// daemon, collector and manager legs of the probe/event protocol.
package wire

import "fmt"

const (
	// Magic opens every datagram.
	Magic uint32 = 0x5A7D0001

	// HeaderLen is the magic plus the command byte.
	HeaderLen = 5

	// MaxDatagramSize bounds every datagram we send or read.
	MaxDatagramSize = 8192

	// MaxStringLen is the largest string a length byte can describe.
	MaxStringLen = 255
)

// Command identifies the payload layout following the header.
type Command uint8

// Daemon to collector control commands.
const (
	RegisterInit Command = 1
	RegisterEnd  Command = 2
	RegisterLive Command = 3
	Unregister   Command = 4
	Ack          Command = 5
	Relay        Command = 7
)

// Sub-commands carried inside a Relay envelope.
const (
	SendProbes    Command = 10
	EnableProbe   Command = 11
	DisableProbe  Command = 12
	SendLog       Command = 20
	SetLogLevel   Command = 22
	EnableLogs    Command = 23
	DisableLogs   Command = 24
	EnableSyslog  Command = 25
	DisableSyslog Command = 26
)

// Collector <-> manager commands.
const (
	MgrRegister          Command = 40
	MgrRegisterProgram   Command = 41
	MgrUnregisterProgram Command = 42
	MgrUnregister        Command = 43
	MgrRegisterAck       Command = 44
	MgrStatus            Command = 45
	MgrSendProbes        Command = 50
	MgrSetProbeStatus    Command = 51
	MgrSendLog           Command = 60
	MgrSetLogLevel       Command = 61
	MgrSetLogsStatus     Command = 62
	MgrSetSyslogStatus   Command = 63
)

var commandNames = map[Command]string{
	RegisterInit:         "REGISTER_INIT",
	RegisterEnd:          "REGISTER_END",
	RegisterLive:         "REGISTER_LIVE",
	Unregister:           "UNREGISTER",
	Ack:                  "ACK",
	Relay:                "RELAY",
	SendProbes:           "SEND_PROBES",
	EnableProbe:          "ENABLE_PROBE",
	DisableProbe:         "DISABLE_PROBE",
	SendLog:              "SEND_LOG",
	SetLogLevel:          "SET_LOG_LEVEL",
	EnableLogs:           "ENABLE_LOGS",
	DisableLogs:          "DISABLE_LOGS",
	EnableSyslog:         "ENABLE_SYSLOG",
	DisableSyslog:        "DISABLE_SYSLOG",
	MgrRegister:          "MGR_REGISTER",
	MgrRegisterProgram:   "MGR_REGISTER_PROGRAM",
	MgrUnregisterProgram: "MGR_UNREGISTER_PROGRAM",
	MgrUnregister:        "MGR_UNREGISTER",
	MgrRegisterAck:       "MGR_REGISTER_ACK",
	MgrStatus:            "MGR_STATUS",
	MgrSendProbes:        "MGR_SEND_PROBES",
	MgrSetProbeStatus:    "MGR_SET_PROBE_STATUS",
	MgrSendLog:           "MGR_SEND_LOG",
	MgrSetLogLevel:       "MGR_SET_LOG_LEVEL",
	MgrSetLogsStatus:     "MGR_SET_LOGS_STATUS",
	MgrSetSyslogStatus:   "MGR_SET_SYSLOG_STATUS",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}

	return fmt.Sprintf("COMMAND(%d)", uint8(c))
}

// IsManager reports whether the command belongs to the collector/manager leg.
func (c Command) IsManager() bool {
	return c >= MgrRegister
}

// LogLevel is the severity attached to a log (event) stream.
type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = [...]string{"debug", "info", "notice", "warning", "error", "critical"}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}

	return fmt.Sprintf("level(%d)", uint8(l))
}

// ParseLogLevel maps a level name back to its value.
func ParseLogLevel(s string) (LogLevel, error) {
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, s)
}

// ProbeStatus is the tri-state carried by MGR_SET_PROBE_STATUS.
type ProbeStatus uint8

const (
	StatusDisabled  ProbeStatus = 0
	StatusEnabled   ProbeStatus = 1
	StatusDisplayed ProbeStatus = 2
)

// NewProbeStatus folds the two probe flags into the wire status byte.
func NewProbeStatus(enabled, displayed bool) ProbeStatus {
	switch {
	case enabled && displayed:
		return StatusDisplayed
	case enabled:
		return StatusEnabled
	default:
		return StatusDisabled
	}
}

// Flags expands a status byte into enabled and displayed.
func (s ProbeStatus) Flags() (enabled, displayed bool) {
	switch s {
	case StatusDisplayed:
		return true, true
	case StatusEnabled:
		return true, false
	default:
		return false, false
	}
}
