package manager

import (
	"context"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CNES/opensand-sub000/pkg/collector"
	"github.com/CNES/opensand-sub000/pkg/registry"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

type testbed struct {
	engine    *collector.Engine
	collector netip.AddrPort
	transfer  *collector.TransferServer
	daemon    *fakeCollector
}

func newTestbed(t *testing.T) *testbed {
	t.Helper()

	hosts, err := registry.NewHostManager(registry.WithTempDir(t.TempDir()))
	require.NoError(t, err)

	e, err := collector.Listen("127.0.0.1:0", hosts, collector.WithStatusInterval(time.Hour))
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))

	srv, err := collector.NewTransferServer("127.0.0.1:0", e)
	require.NoError(t, err)

	go func() { _ = srv.Serve(context.Background()) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		assert.NoError(t, srv.Close())
		assert.NoError(t, e.Stop(ctx))
		assert.NoError(t, hosts.Close())
	})

	ap := e.Addr().(*net.UDPAddr).AddrPort()

	// the daemon only needs a raw socket, like the fake collector
	daemon := newFakeCollector(t)
	require.NoError(t, e.AddHost(context.Background(), "st1", daemon.addr()))

	return &testbed{
		engine:    e,
		collector: netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()),
		transfer:  srv,
		daemon:    daemon,
	}
}

func (b *testbed) transferPort() int {
	return b.transfer.Addr().(*net.TCPAddr).Port
}

func (b *testbed) register(t *testing.T, cmd wire.Command) {
	t.Helper()

	data, err := wire.EncodeRegistration(cmd, &wire.Registration{
		ProgramID: 1,
		Name:      "uplink",
		Probes: []wire.ProbeInfo{
			{ID: 0, Name: "throughput", Unit: "kbps", Type: wire.Double64, Enabled: true},
		},
	})
	require.NoError(t, err)

	b.daemon.send(b.collector, data)
	b.daemon.expect(wire.Ack)
}

func (b *testbed) sendProbe(t *testing.T, ts uint32, value float64) {
	t.Helper()

	w := wire.NewMessage(wire.Relay)
	w.PutU8(1)
	w.PutU8(uint8(wire.SendProbes))
	w.PutU32(ts)
	w.PutU8(0)
	require.NoError(t, w.PutValue(wire.Double64, value))

	b.daemon.send(b.collector, w.Bytes())
}

// collectorProbe reads the collector-side probe through the event loop.
func (b *testbed) collectorProbe(t *testing.T, fn func(*registry.Probe)) {
	t.Helper()

	require.NoError(t, b.engine.Do(context.Background(), func(m *registry.HostManager) {
		p, err := m.Program(0, 1)
		if err != nil {
			return
		}

		if pr, ok := p.Probe(0); ok {
			fn(pr)
		}
	}))
}

func TestEndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	bed := newTestbed(t)

	c, _ := newController(t)
	require.NoError(t, c.RegisterOnCollector(bed.collector, bed.transferPort()))
	require.Eventually(t, c.Functional, recvTimeout, 10*time.Millisecond)

	bed.register(t, wire.RegisterInit)

	var prog *Program

	require.Eventually(t, func() bool {
		var ok bool

		prog, ok = c.Program(wire.FullID(0, 1))

		return ok
	}, recvTimeout, 10*time.Millisecond)

	probes := prog.Probes()
	require.Len(t, probes, 1)
	assert.Equal(t, "throughput", probes[0].Name())
	assert.Equal(t, "kbps", probes[0].Unit())
	assert.Empty(t, prog.Logs())

	bed.register(t, wire.RegisterEnd)

	require.NoError(t, c.UpdateProbeStatus(probes[0], true, true))
	require.Eventually(t, func() bool {
		var displayed bool

		bed.collectorProbe(t, func(p *registry.Probe) { displayed = p.Displayed() })

		return displayed
	}, recvTimeout, 10*time.Millisecond)

	received := make(chan struct{})

	observer := NewMockObserver(ctrl)
	observer.EXPECT().ProgramListChanged().AnyTimes()
	observer.EXPECT().NewProbeValue(probes[0], uint32(1000), 42.5).Times(1).Do(
		func(*Probe, uint32, float64) { close(received) })
	c.SetObserver(observer)

	bed.sendProbe(t, 1000, 42.5)

	select {
	case <-received:
	case <-time.After(recvTimeout):
		t.Fatal("probe value not delivered")
	}

	var path string

	bed.collectorProbe(t, func(p *registry.Probe) { path = p.Path() })

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, strings.Split(string(data), "\n"), "1000 42.5")

	// the enabled bit did not change, nothing is relayed to the daemon
	bed.daemon.expectNothing(100 * time.Millisecond)

	dest := t.TempDir()
	require.NoError(t, c.TransferFromCollector(context.Background(), dest))

	run, err := LoadRun(dest)
	require.NoError(t, err)
	require.Len(t, run.Programs, 1)
	assert.Equal(t, "st1.uplink", run.Programs[0].FullName())

	saved, ok := run.Programs[0].ProbeByName("throughput")
	require.True(t, ok)
	assert.Equal(t, "kbps", saved.Unit())
	assert.Equal(t, []Point{{Timestamp: 1000, Value: 42.5}}, run.Points(saved))

	_, err = os.Stat(filepath.Join(dest, "st1", "uplink", registry.EventLogFile))
	assert.NoError(t, err)
}

func TestTransferDialTimeout(t *testing.T) {
	c, _ := newController(t, WithDialTimeout(200*time.Millisecond))
	coll := newFakeCollector(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	require.NoError(t, c.RegisterOnCollector(coll.addr(), port))

	err = c.TransferFromCollector(context.Background(), t.TempDir())
	assert.Error(t, err)
}
