package registry

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CNES/opensand-sub000/pkg/wire"
)

func newTestManager(t *testing.T, opts ...Option) *HostManager {
	t.Helper()

	opts = append([]Option{WithTempDir(t.TempDir())}, opts...)

	m, err := NewHostManager(opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = m.Close() })

	return m
}

func addr(i int) netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{10, 0, byte(i >> 8), byte(i)}), 5358)
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

var throughput = wire.ProbeInfo{ID: 0, Name: "throughput", Unit: "kbps", Type: wire.Double64, Enabled: true}

func TestAddHost(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.Ident())
	assert.DirExists(t, m.StoragePath("st1"))

	_, err = m.AddHost("st1", addr(2))
	require.ErrorIs(t, err, ErrHostExists)

	_, err = m.AddHost("gw", addr(1))
	require.ErrorIs(t, err, ErrAddressInUse)

	gw, err := m.AddHost("gw", addr(2))
	require.NoError(t, err)
	assert.Equal(t, uint8(1), gw.Ident())

	got, ok := m.Host(addr(2))
	require.True(t, ok)
	assert.Same(t, gw, got)

	mapped := netip.AddrPortFrom(netip.MustParseAddr("::ffff:10.0.0.1"), 5358)
	got, ok = m.Host(mapped)
	require.True(t, ok)
	assert.Same(t, h, got)
}

func TestRefCount(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddHost("sat", addr(1))
	require.NoError(t, err)
	require.NoError(t, m.AddHostAddr("sat", addr(2)))
	require.ErrorIs(t, m.AddHostAddr("nobody", addr(3)), ErrUnknownHost)

	require.NoError(t, m.RemoveHost("sat"))

	h, ok := m.HostByName("sat")
	require.True(t, ok, "host should survive while a reference remains")
	assert.Equal(t, 1, h.RefCount())

	require.NoError(t, m.RemoveHost("sat"))

	_, ok = m.HostByName("sat")
	assert.False(t, ok)

	_, ok = m.Host(addr(1))
	assert.False(t, ok)

	_, ok = m.Host(addr(2))
	assert.False(t, ok)

	require.ErrorIs(t, m.RemoveHost("sat"), ErrUnknownHost)
}

func TestIdentReuseRestoresStorage(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)

	_, err = m.AddHost("gw", addr(2))
	require.NoError(t, err)

	prog := h.AddProgram(1, "uplink", []wire.ProbeInfo{throughput}, nil)
	probe, _ := prog.Probe(0)
	probe.SaveValue(1, 10)
	path := probe.Path()

	prog.SetInitialized(true)
	prog.MarkAnnounced(prog.Attributes())

	require.NoError(t, m.RemoveHost("st1"))

	// a new host must not steal the ident of a removed one
	other, err := m.AddHost("st2", addr(3))
	require.NoError(t, err)
	assert.Equal(t, uint8(2), other.Ident())

	back, err := m.AddHost("st1", addr(4))
	require.NoError(t, err)
	assert.Same(t, h, back)
	assert.Equal(t, uint8(0), back.Ident())
	assert.Equal(t, addr(4), back.Address())

	probe.SaveValue(2, 20)
	assert.Equal(t, "kbps\n1 10\n2 20\n", readFile(t, path))

	// the restarted daemon has to register its programs again
	assert.False(t, prog.Initialized())
	assert.False(t, m.IsInitialized(back.Ident(), 1))
	assert.False(t, prog.Announced())
	assert.Len(t, prog.Unannounced().Probes, 1)
}

func TestRemoveHostAddr(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)
	require.NoError(t, m.AddHostAddr("st1", addr(2)))

	require.ErrorIs(t, m.RemoveHostAddr("st1", addr(3)), ErrUnknownAddress)
	require.ErrorIs(t, m.RemoveHostAddr("gw", addr(1)), ErrUnknownHost)

	// the first address goes away, the second one takes over
	require.NoError(t, m.RemoveHostAddr("st1", addr(1)))

	h, ok := m.HostByName("st1")
	require.True(t, ok)
	assert.Equal(t, 1, h.RefCount())
	assert.Equal(t, addr(2), h.Address())
	assert.Equal(t, []netip.AddrPort{addr(2)}, h.Addresses())

	got, ok := m.HostAddress(h.Ident())
	require.True(t, ok)
	assert.Equal(t, addr(2), got)

	_, ok = m.Host(addr(1))
	assert.False(t, ok, "dropped address must not be accepted")

	// the freed address may now belong to another host
	_, err = m.AddHost("gw", addr(1))
	require.NoError(t, err)

	// the last address removes the host
	require.NoError(t, m.RemoveHostAddr("st1", addr(2)))

	_, ok = m.HostByName("st1")
	assert.False(t, ok)

	_, ok = m.Host(addr(2))
	assert.False(t, ok)
}

func TestIdentExhaustion(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < FullIdent; i++ {
		_, err := m.AddHost(fmt.Sprintf("host%d", i), addr(i))
		require.NoError(t, err)
	}

	_, err := m.AddHost("one-too-many", addr(1000))
	require.ErrorIs(t, err, ErrNoFreeIdent)

	_, ok := m.HostByName("one-too-many")
	assert.False(t, ok)
	assert.Len(t, m.Hosts(), FullIdent)

	require.NoError(t, m.RemoveHost("host17"))

	h, err := m.AddHost("late", addr(1000))
	require.NoError(t, err)
	assert.Equal(t, uint8(17), h.Ident())
}

func TestNewIdentAfterSwitchStorage(t *testing.T) {
	m := newTestManager(t)

	_, err := m.AddHost("a", addr(1))
	require.NoError(t, err)
	require.NoError(t, m.RemoveHost("a"))

	_, err = m.SwitchStorage()
	require.NoError(t, err)

	h, err := m.AddHost("b", addr(2))
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.Ident())
}

func TestSetProbeStatus(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)
	h.AddProgram(1, "uplink", []wire.ProbeInfo{throughput}, nil)

	tests := []struct {
		name               string
		probeID            uint8
		enabled, displayed bool
		wantHost           bool
	}{
		{name: "display_only", enabled: true, displayed: true, wantHost: false},
		{name: "same_again", enabled: true, displayed: false, wantHost: false},
		{name: "disable", enabled: false, displayed: false, wantHost: true},
		{name: "enable", enabled: true, displayed: true, wantHost: true},
		{name: "unknown_probe", probeID: 9, enabled: false, wantHost: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.SetProbeStatus(0, 1, tt.probeID, tt.enabled, tt.displayed)
			if tt.wantHost {
				assert.Same(t, h, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}

	assert.Nil(t, m.SetProbeStatus(4, 1, 0, true, true))
	assert.Nil(t, m.SetProbeStatus(0, 4, 0, true, true))

	probe, _ := m.AllPrograms()[0].Probe(0)
	assert.True(t, probe.Enabled())
	assert.True(t, probe.Displayed())
}

func TestSetLogLevel(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("gw", addr(1))
	require.NoError(t, err)
	h.AddProgram(2, "ncc", nil, []wire.LogInfo{{ID: 3, Name: "dama", Level: wire.LevelInfo}})

	assert.Same(t, h, m.SetLogLevel(0, 2, 3, wire.LevelDebug))
	assert.Nil(t, m.SetLogLevel(0, 2, 4, wire.LevelDebug))

	l, _ := m.AllPrograms()[0].Log(3)
	assert.Equal(t, wire.LevelDebug, l.Level())
}

func TestAnnouncements(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)

	prog := h.AddProgram(1, "uplink", []wire.ProbeInfo{throughput}, nil)
	reg := prog.Unannounced()
	require.Len(t, reg.Probes, 1)
	assert.Equal(t, "st1.uplink", reg.FullName)
	prog.MarkAnnounced(reg)

	h.AddProgram(1, "uplink", []wire.ProbeInfo{
		throughput,
		{ID: 1, Name: "delay", Unit: "ms", Type: wire.Int32},
	}, []wire.LogInfo{{ID: 0, Name: "init"}})

	reg = prog.Unannounced()
	require.Len(t, reg.Probes, 1)
	assert.Equal(t, "delay", reg.Probes[0].Name)
	assert.Len(t, reg.Logs, 1)

	m.UnregManager()
	reg = prog.Unannounced()
	assert.Len(t, reg.Probes, 2)
	assert.Len(t, reg.Logs, 1)
}

func TestStorageLayout(t *testing.T) {
	at := time.Unix(1000, 250000000)
	m := newTestManager(t, WithClock(func() time.Time { return at }))

	h, err := m.AddHost("st 1", addr(1))
	require.NoError(t, err)

	prog := h.AddProgram(1, "up/link", []wire.ProbeInfo{
		throughput,
		{ID: 1, Name: "lost packets", Unit: "pkt", Type: wire.Int32, Enabled: true},
	}, []wire.LogInfo{{ID: 0, Name: "init", Level: wire.LevelInfo}})

	dir := filepath.Join(m.Root(), "st_1", "up_link")
	assert.DirExists(t, dir)

	p0, _ := prog.Probe(0)
	p0.SaveValue(1000, 42.5)

	p1, _ := prog.Probe(1)
	p1.SaveValue(1001, -3)

	l, _ := prog.Log(0)
	l.Save("started")

	assert.Equal(t, "kbps\n1000 42.5\n", readFile(t, filepath.Join(dir, "throughput.log")))
	assert.Equal(t, "pkt\n1001 -3\n", readFile(t, filepath.Join(dir, "lost_packets.log")))
	assert.Equal(t, "1000.250000 init started\n", readFile(t, filepath.Join(dir, EventLogFile)))
}

func TestSwitchStorage(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)

	prog := h.AddProgram(1, "uplink", []wire.ProbeInfo{throughput}, nil)
	probe, _ := prog.Probe(0)
	probe.SaveValue(1, 1)

	first := m.Root()

	previous, err := m.SwitchStorage()
	require.NoError(t, err)
	assert.Equal(t, first, previous)
	assert.NotEqual(t, first, m.Root())

	probe.SaveValue(2, 2)

	assert.Equal(t, "kbps\n1 1\n", readFile(t, filepath.Join(previous, "st1", "uplink", "throughput.log")))
	assert.Equal(t, "kbps\n2 2\n", readFile(t, probe.Path()))
	assert.True(t, strings.HasPrefix(probe.Path(), m.Root()))

	require.NoError(t, os.RemoveAll(previous))
}

func TestRemoveProgram(t *testing.T) {
	m := newTestManager(t)

	h, err := m.AddHost("st1", addr(1))
	require.NoError(t, err)
	h.AddProgram(1, "uplink", nil, nil)

	assert.True(t, h.RemoveProgram(1))
	assert.False(t, h.RemoveProgram(1))

	_, err = m.Program(0, 1)
	assert.ErrorIs(t, err, ErrUnknownProgram)
	assert.False(t, m.IsInitialized(0, 1))
}
