package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

func uplink() *manager.Program {
	return manager.NewProgram(&wire.ProgramRegistration{
		HostID:    3,
		ProgramID: 1,
		FullName:  "st1.uplink",
		Probes: []wire.ProbeInfo{
			{ID: 0, Name: "throughput", Unit: "kbps", Type: wire.Double64, Enabled: true},
			{ID: 1, Name: "drops", Unit: "pkt", Type: wire.Int32},
		},
		Logs: []wire.LogInfo{{ID: 0, Name: "init", Level: wire.LevelInfo}},
	})
}

// runUntilDrained starts r with a canceled context so that it writes what is
// queued and returns.
func runUntilDrained(t *testing.T, r *Recorder) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Start(ctx))
}

func TestRecorderBatchesValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockService(ctrl)

	prog := uplink()
	throughput, _ := prog.Probe(0)
	drops, _ := prog.Probe(1)

	received := time.Unix(1700000000, 0)

	r := NewRecorder(store, nil)
	r.now = func() time.Time { return received }

	store.EXPECT().StoreValues([]ProbeValue{
		{FullID: 0x0301, ProbeID: 0, Timestamp: 1000, Value: 42.5, Received: received},
		{FullID: 0x0301, ProbeID: 1, Timestamp: 1000, Value: 3, Received: received},
		{FullID: 0x0301, ProbeID: 0, Timestamp: 1001, Value: 43, Received: received},
	}).Return(nil)

	r.NewProbeValue(throughput, 1000, 42.5)
	r.NewProbeValue(drops, 1000, 3)
	r.NewProbeValue(throughput, 1001, 43)

	runUntilDrained(t, r)
}

func TestRecorderKeepsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockService(ctrl)

	prog := uplink()
	throughput, _ := prog.Probe(0)

	r := NewRecorder(store, nil)

	gomock.InOrder(
		store.EXPECT().StoreValues(gomock.Len(1)).Return(nil),
		store.EXPECT().StoreEvent(gomock.Any()).DoAndReturn(func(e *EventRecord) error {
			assert.Equal(t, uint16(0x0301), e.FullID)
			assert.Equal(t, "init", e.Name)
			assert.Equal(t, "warning", e.Level)
			assert.Equal(t, "link down", e.Text)

			return nil
		}),
		store.EXPECT().StoreValues(gomock.Len(1)).Return(errors.New("disk full")),
	)

	r.NewProbeValue(throughput, 1000, 1)
	r.NewLog(prog, "init", wire.LevelWarning, "link down")
	r.NewProbeValue(throughput, 1001, 2)

	runUntilDrained(t, r)
}

func TestRecorderSyncsPrograms(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockService(ctrl)

	prog := uplink()

	r := NewRecorder(store, func() []*manager.Program { return []*manager.Program{prog} })

	store.EXPECT().UpsertProgram(gomock.Any(), gomock.Any()).DoAndReturn(
		func(p *ProgramRecord, probes []ProbeRecord) error {
			assert.Equal(t, uint16(0x0301), p.FullID)
			assert.Equal(t, uint8(3), p.HostID)
			assert.Equal(t, uint8(1), p.ProgramID)
			assert.Equal(t, "st1.uplink", p.Name)

			require.Len(t, probes, 2)
			assert.Equal(t, ProbeRecord{
				FullID: 0x0301, ProbeID: 0, Name: "throughput", Unit: "kbps", StorageType: "double",
			}, probes[0])
			assert.Equal(t, "int32", probes[1].StorageType)

			return nil
		})

	r.ProgramListChanged()

	runUntilDrained(t, r)
}

func TestRecorderDropsWhenFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockService(ctrl)

	prog := uplink()
	throughput, _ := prog.Probe(0)

	r := NewRecorder(store, nil, WithQueueSize(2))

	for i := range 5 {
		r.NewProbeValue(throughput, uint32(i), 0)
	}

	assert.Equal(t, int64(3), r.Dropped())

	store.EXPECT().StoreValues(gomock.Len(2)).Return(nil)

	runUntilDrained(t, r)
}

func TestRecorderRetention(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockService(ctrl)

	cleaned := make(chan struct{})

	store.EXPECT().CleanOldData(time.Hour).DoAndReturn(func(time.Duration) error {
		select {
		case <-cleaned:
		default:
			close(cleaned)
		}

		return nil
	}).MinTimes(1)

	r := NewRecorder(store, nil, WithRetention(time.Hour), WithCleanInterval(10*time.Millisecond))

	done := make(chan error, 1)

	go func() { done <- r.Start(context.Background()) }()

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("old data was never cleaned")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, r.Stop(ctx))
	require.NoError(t, <-done)
}

func TestRecorderStopBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := NewRecorder(NewMockService(ctrl), nil)

	require.NoError(t, r.Stop(context.Background()))
	require.NoError(t, r.Start(context.Background()))
}
