package collector

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CNES/opensand-sub000/pkg/registry"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const recvTimeout = 2 * time.Second

// peer is a raw UDP endpoint playing a daemon or a manager.
type peer struct {
	t    *testing.T
	conn *net.UDPConn
}

func newPeer(t *testing.T) *peer {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	return &peer{t: t, conn: conn}
}

func (p *peer) addr() netip.AddrPort {
	return registry.NormalizeAddr(p.conn.LocalAddr().(*net.UDPAddr).AddrPort())
}

func (p *peer) send(to netip.AddrPort, data []byte) {
	p.t.Helper()

	_, err := p.conn.WriteToUDPAddrPort(data, to)
	require.NoError(p.t, err)
}

// expect reads until a datagram carrying want arrives.
func (p *peer) expect(want wire.Command) []byte {
	p.t.Helper()

	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(recvTimeout)))

	buf := make([]byte, wire.MaxDatagramSize)

	for {
		n, _, err := p.conn.ReadFromUDPAddrPort(buf)
		require.NoError(p.t, err, "waiting for %s", want)

		cmd, payload, err := wire.ParseHeader(buf[:n])
		require.NoError(p.t, err)

		if cmd == want {
			return append([]byte(nil), payload...)
		}
	}
}

// expectNone fails if a datagram carrying cmd arrives within d.
func (p *peer) expectNone(cmd wire.Command, d time.Duration) {
	p.t.Helper()

	require.NoError(p.t, p.conn.SetReadDeadline(time.Now().Add(d)))

	buf := make([]byte, wire.MaxDatagramSize)

	for {
		n, _, err := p.conn.ReadFromUDPAddrPort(buf)

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return
		}

		require.NoError(p.t, err)

		got, _, err := wire.ParseHeader(buf[:n])
		require.NoError(p.t, err)
		require.NotEqual(p.t, cmd, got, "unexpected %s", got)
	}
}

func startEngine(t *testing.T, opts ...Option) (*Engine, netip.AddrPort) {
	t.Helper()

	hosts, err := registry.NewHostManager(registry.WithTempDir(t.TempDir()))
	require.NoError(t, err)

	opts = append([]Option{WithStatusInterval(time.Hour)}, opts...)

	e, err := Listen("127.0.0.1:0", hosts, opts...)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		assert.NoError(t, e.Stop(ctx))
		assert.NoError(t, hosts.Close())
	})

	return e, registry.NormalizeAddr(e.Addr().(*net.UDPAddr).AddrPort())
}

func uplink() *wire.Registration {
	return &wire.Registration{
		ProgramID: 1,
		Name:      "uplink",
		Probes: []wire.ProbeInfo{
			{ID: 0, Name: "throughput", Unit: "kbps", Type: wire.Double64, Enabled: true},
		},
		Logs: []wire.LogInfo{
			{ID: 0, Name: "init", Level: wire.LevelInfo},
		},
	}
}

func registration(t *testing.T, cmd wire.Command, reg *wire.Registration) []byte {
	t.Helper()

	data, err := wire.EncodeRegistration(cmd, reg)
	require.NoError(t, err)

	return data
}

func sendProbes(progID uint8, ts uint32, value float64) []byte {
	w := wire.NewMessage(wire.Relay)
	w.PutU8(progID)
	w.PutU8(uint8(wire.SendProbes))
	w.PutU32(ts)
	w.PutU8(0)
	_ = w.PutValue(wire.Double64, value)

	return w.Bytes()
}

func control(cmd wire.Command, body ...uint8) []byte {
	w := wire.NewMessage(cmd)
	for _, b := range body {
		w.PutU8(b)
	}

	return w.Bytes()
}

// programState reads a program through the event loop.
func programState(t *testing.T, e *Engine, hostID, progID uint8) (found, initialized bool) {
	t.Helper()

	require.NoError(t, e.Do(context.Background(), func(m *registry.HostManager) {
		p, err := m.Program(hostID, progID)
		if err != nil {
			return
		}

		found, initialized = true, p.Initialized()
	}))

	return found, initialized
}

func probeFile(t *testing.T, e *Engine, hostID, progID, probeID uint8) string {
	t.Helper()

	var path string

	require.NoError(t, e.Do(context.Background(), func(m *registry.HostManager) {
		p, err := m.Program(hostID, progID)
		require.NoError(t, err)

		pr, ok := p.Probe(probeID)
		require.True(t, ok)

		path = pr.Path()
	}))

	return path
}

// setupDaemon registers st1 and its uplink program, fully initialized.
func setupDaemon(t *testing.T, e *Engine, collector netip.AddrPort) *peer {
	t.Helper()

	daemon := newPeer(t)
	require.NoError(t, e.AddHost(context.Background(), "st1", daemon.addr()))

	daemon.send(collector, registration(t, wire.RegisterInit, uplink()))
	daemon.expect(wire.Ack)
	daemon.send(collector, registration(t, wire.RegisterEnd, uplink()))
	daemon.expect(wire.Ack)

	return daemon
}

func registerManager(t *testing.T, collector netip.AddrPort) *peer {
	t.Helper()

	mgr := newPeer(t)
	mgr.send(collector, control(wire.MgrRegister))
	mgr.expect(wire.MgrRegisterAck)

	return mgr
}

func TestDaemonRegistration(t *testing.T) {
	e, collector := startEngine(t)

	daemon := newPeer(t)
	require.NoError(t, e.AddHost(context.Background(), "st1", daemon.addr()))

	daemon.send(collector, registration(t, wire.RegisterInit, uplink()))
	daemon.expect(wire.Ack)

	found, initialized := programState(t, e, 0, 1)
	assert.True(t, found)
	assert.False(t, initialized)

	daemon.send(collector, registration(t, wire.RegisterLive, uplink()))
	daemon.expectNone(wire.Ack, 200*time.Millisecond)

	daemon.send(collector, registration(t, wire.RegisterEnd, uplink()))
	daemon.expect(wire.Ack)

	_, initialized = programState(t, e, 0, 1)
	assert.True(t, initialized)

	data, err := os.ReadFile(probeFile(t, e, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "kbps\n", string(data))
}

func TestMalformedDatagramsAreDropped(t *testing.T) {
	e, collector := startEngine(t)

	daemon := newPeer(t)
	require.NoError(t, e.AddHost(context.Background(), "st1", daemon.addr()))

	valid := registration(t, wire.RegisterInit, uplink())

	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0x5A, 0x7D}},
		{"bad magic", append([]byte{0, 0, 0, 0}, valid[4:]...)},
		{"truncated registration", valid[:len(valid)-2]},
		{"trailing byte", append(append([]byte(nil), valid...), 0)},
		{"unknown command", control(wire.Command(99))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daemon.send(collector, tt.data)
			daemon.expectNone(wire.Ack, 100*time.Millisecond)

			found, _ := programState(t, e, 0, 1)
			assert.False(t, found)
		})
	}

	daemon.send(collector, valid)
	daemon.expect(wire.Ack)
}

func TestUnknownHostIsIgnored(t *testing.T) {
	e, collector := startEngine(t)

	stranger := newPeer(t)
	stranger.send(collector, registration(t, wire.RegisterInit, uplink()))
	stranger.expectNone(wire.Ack, 200*time.Millisecond)

	found, _ := programState(t, e, 0, 1)
	assert.False(t, found)
}

func TestManagerReceivesReplay(t *testing.T) {
	e, collector := startEngine(t)
	setupDaemon(t, e, collector)

	mgr := registerManager(t, collector)

	prog, err := wire.DecodeProgramRegistration(mgr.expect(wire.MgrRegisterProgram))
	require.NoError(t, err)

	assert.Equal(t, uint8(0), prog.HostID)
	assert.Equal(t, uint8(1), prog.ProgramID)
	assert.Equal(t, "st1.uplink", prog.FullName)
	require.Len(t, prog.Probes, 1)
	assert.Equal(t, "throughput", prog.Probes[0].Name)
	assert.Equal(t, "kbps", prog.Probes[0].Unit)
	assert.True(t, prog.Probes[0].Enabled)
	assert.False(t, prog.Probes[0].Displayed)
	require.Len(t, prog.Logs, 1)

	active, ok := e.Manager()
	assert.True(t, ok)
	assert.Equal(t, mgr.addr(), active)
}

func TestSingleActiveManager(t *testing.T) {
	e, collector := startEngine(t)
	setupDaemon(t, e, collector)

	first := registerManager(t, collector)
	first.expect(wire.MgrRegisterProgram)

	second := newPeer(t)
	second.send(collector, control(wire.MgrRegister))
	second.expectNone(wire.MgrRegisterAck, 200*time.Millisecond)

	active, _ := e.Manager()
	assert.Equal(t, first.addr(), active)
	assert.Equal(t, []netip.AddrPort{second.addr()}, e.PendingManagers())

	first.send(collector, control(wire.MgrUnregister))
	second.expect(wire.MgrRegisterAck)
	second.expect(wire.MgrRegisterProgram)

	active, _ = e.Manager()
	assert.Equal(t, second.addr(), active)
	assert.Empty(t, e.PendingManagers())
}

func TestQueuedManagerUnregisters(t *testing.T) {
	e, collector := startEngine(t)

	first := registerManager(t, collector)

	second := newPeer(t)
	second.send(collector, control(wire.MgrRegister))

	require.Eventually(t, func() bool { return len(e.PendingManagers()) == 1 }, recvTimeout, 10*time.Millisecond)

	second.send(collector, control(wire.MgrUnregister))

	require.Eventually(t, func() bool { return len(e.PendingManagers()) == 0 }, recvTimeout, 10*time.Millisecond)

	active, _ := e.Manager()
	assert.Equal(t, first.addr(), active)
}

func TestProbesGatedOnInitialization(t *testing.T) {
	e, collector := startEngine(t)
	mgr := registerManager(t, collector)

	daemon := newPeer(t)
	require.NoError(t, e.AddHost(context.Background(), "st1", daemon.addr()))

	daemon.send(collector, registration(t, wire.RegisterInit, uplink()))
	daemon.expect(wire.Ack)
	mgr.expect(wire.MgrRegisterProgram)

	require.NoError(t, e.Do(context.Background(), func(m *registry.HostManager) {
		m.SetProbeStatus(0, 1, 0, true, true)
	}))

	daemon.send(collector, sendProbes(1, 999, 1.5))
	mgr.expectNone(wire.MgrSendProbes, 200*time.Millisecond)

	daemon.send(collector, registration(t, wire.RegisterEnd, uplink()))
	daemon.expect(wire.Ack)

	daemon.send(collector, sendProbes(1, 1000, 42.5))

	r := wire.NewReader(mgr.expect(wire.MgrSendProbes))

	hostID, _ := r.ReadU8()
	progID, _ := r.ReadU8()
	ts, _ := r.ReadU32()
	probeID, _ := r.ReadU8()
	value, err := r.ReadValue(wire.Double64)
	require.NoError(t, err)
	require.NoError(t, r.Done())

	assert.Equal(t, uint8(0), hostID)
	assert.Equal(t, uint8(1), progID)
	assert.Equal(t, uint32(1000), ts)
	assert.Equal(t, uint8(0), probeID)
	assert.InDelta(t, 42.5, value, 0)

	data, err := os.ReadFile(probeFile(t, e, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "kbps\n999 1.5\n1000 42.5\n", string(data))
}

func TestHiddenProbesAreNotForwarded(t *testing.T) {
	e, collector := startEngine(t)
	daemon := setupDaemon(t, e, collector)
	mgr := registerManager(t, collector)

	daemon.send(collector, sendProbes(1, 5, 7))
	mgr.expectNone(wire.MgrSendProbes, 200*time.Millisecond)

	data, err := os.ReadFile(probeFile(t, e, 0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "kbps\n5 7\n", string(data))
}

func TestProbeStatusRelay(t *testing.T) {
	e, collector := startEngine(t)
	daemon := setupDaemon(t, e, collector)
	mgr := registerManager(t, collector)

	tests := []struct {
		name   string
		status wire.ProbeStatus
		relay  wire.Command
	}{
		{"display keeps enabled", wire.StatusDisplayed, 0},
		{"disable", wire.StatusDisabled, wire.DisableProbe},
		{"disable again", wire.StatusDisabled, 0},
		{"enable", wire.StatusEnabled, wire.EnableProbe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr.send(collector, control(wire.MgrSetProbeStatus, 0, 1, 0, uint8(tt.status)))

			if tt.relay == 0 {
				daemon.expectNone(wire.Relay, 200*time.Millisecond)
				return
			}

			r := wire.NewReader(daemon.expect(wire.Relay))

			progID, _ := r.ReadU8()
			sub, _ := r.ReadU8()
			probeID, _ := r.ReadU8()
			require.NoError(t, r.Done())

			assert.Equal(t, uint8(1), progID)
			assert.Equal(t, tt.relay, wire.Command(sub))
			assert.Equal(t, uint8(0), probeID)
		})
	}
}

func TestControlRequiresActiveManagerAndInitializedProgram(t *testing.T) {
	e, collector := startEngine(t)
	daemon := setupDaemon(t, e, collector)
	mgr := registerManager(t, collector)

	stranger := newPeer(t)
	stranger.send(collector, control(wire.MgrSetLogsStatus, 0, 1, 1))
	daemon.expectNone(wire.Relay, 200*time.Millisecond)

	mgr.send(collector, control(wire.MgrSetLogsStatus, 0, 9, 1))
	daemon.expectNone(wire.Relay, 200*time.Millisecond)

	tests := []struct {
		name string
		msg  []byte
		sub  wire.Command
		body []byte
	}{
		{"logs on", control(wire.MgrSetLogsStatus, 0, 1, 1), wire.EnableLogs, nil},
		{"logs off", control(wire.MgrSetLogsStatus, 0, 1, 0), wire.DisableLogs, nil},
		{"syslog on", control(wire.MgrSetSyslogStatus, 0, 1, 1), wire.EnableSyslog, nil},
		{"syslog off", control(wire.MgrSetSyslogStatus, 0, 1, 0), wire.DisableSyslog, nil},
		{"log level", control(wire.MgrSetLogLevel, 0, 1, 0, uint8(wire.LevelError)), wire.SetLogLevel, []byte{0, uint8(wire.LevelError)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr.send(collector, tt.msg)

			r := wire.NewReader(daemon.expect(wire.Relay))

			progID, _ := r.ReadU8()
			sub, _ := r.ReadU8()

			assert.Equal(t, uint8(1), progID)
			assert.Equal(t, tt.sub, wire.Command(sub))
			assert.Equal(t, string(tt.body), r.Rest())
		})
	}
}

func TestLogForwarding(t *testing.T) {
	e, collector := startEngine(t)
	daemon := setupDaemon(t, e, collector)
	mgr := registerManager(t, collector)

	w := wire.NewMessage(wire.Relay)
	w.PutU8(1)
	w.PutU8(uint8(wire.SendLog))
	w.PutU8(0)
	w.PutU8(uint8(wire.LevelWarning))
	w.PutText("carrier lost")
	daemon.send(collector, w.Bytes())

	r := wire.NewReader(mgr.expect(wire.MgrSendLog))

	hostID, _ := r.ReadU8()
	progID, _ := r.ReadU8()
	logID, _ := r.ReadU8()
	level, _ := r.ReadU8()

	assert.Equal(t, []uint8{0, 1, 0, uint8(wire.LevelWarning)}, []uint8{hostID, progID, logID, level})
	assert.Equal(t, "carrier lost", r.Rest())

	var path string

	require.NoError(t, e.Do(context.Background(), func(m *registry.HostManager) {
		p, err := m.Program(0, 1)
		require.NoError(t, err)

		path = p.StoragePath(registry.EventLogFile)
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), " init carrier lost\n"), string(data))
}

func TestUnregisterProgram(t *testing.T) {
	e, collector := startEngine(t)
	daemon := setupDaemon(t, e, collector)
	mgr := registerManager(t, collector)

	daemon.send(collector, control(wire.Unregister, 1))

	r := wire.NewReader(mgr.expect(wire.MgrUnregisterProgram))

	hostID, _ := r.ReadU8()
	progID, _ := r.ReadU8()
	assert.Equal(t, uint8(0), hostID)
	assert.Equal(t, uint8(1), progID)

	found, _ := programState(t, e, 0, 1)
	assert.False(t, found)
}

func TestLivenessFailover(t *testing.T) {
	e, collector := startEngine(t,
		WithStatusInterval(50*time.Millisecond),
		WithStatusTimeout(150*time.Millisecond))

	silent := registerManager(t, collector)

	backup := newPeer(t)
	backup.send(collector, control(wire.MgrRegister))

	silent.expect(wire.MgrStatus)
	backup.expect(wire.MgrRegisterAck)

	active, ok := e.Manager()
	require.True(t, ok)
	assert.Equal(t, backup.addr(), active)

	// the backup answers every ping and keeps its place
	for range 3 {
		backup.expect(wire.MgrStatus)
		backup.send(collector, control(wire.MgrStatus))
	}

	active, _ = e.Manager()
	assert.Equal(t, backup.addr(), active)
}

func TestManagerTimeoutWithoutBackup(t *testing.T) {
	e, collector := startEngine(t,
		WithStatusInterval(50*time.Millisecond),
		WithStatusTimeout(100*time.Millisecond))

	registerManager(t, collector)

	require.Eventually(t, func() bool {
		_, ok := e.Manager()
		return !ok
	}, recvTimeout, 10*time.Millisecond)
}

func TestStopBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockPacketConn(ctrl)
	conn.EXPECT().Close().Return(nil)

	hosts, err := registry.NewHostManager(registry.WithTempDir(t.TempDir()))
	require.NoError(t, err)

	defer hosts.Close()

	e := New(conn, hosts)
	require.NoError(t, e.Stop(context.Background()))

	err = e.Do(context.Background(), func(*registry.HostManager) {})
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := NewMockPacketConn(ctrl)
	conn.EXPECT().ReadFromUDPAddrPort(gomock.Any()).Return(0, netip.AddrPort{}, net.ErrClosed).AnyTimes()
	conn.EXPECT().Close().Return(nil)

	hosts, err := registry.NewHostManager(registry.WithTempDir(t.TempDir()))
	require.NoError(t, err)

	defer hosts.Close()

	e := New(conn, hosts)
	require.NoError(t, e.Start(context.Background()))
	assert.ErrorIs(t, e.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, e.Stop(context.Background()))
	require.NoError(t, e.Stop(context.Background()))

	assert.ErrorIs(t, e.Do(context.Background(), func(*registry.HostManager) {}), ErrStopped)
}
