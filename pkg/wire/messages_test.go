package wire

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistration() *Registration {
	return &Registration{
		ProgramID: 3,
		Name:      "uplink",
		Probes: []ProbeInfo{
			{ID: 0, Name: "throughput", Unit: "kbps", Type: Double64, Enabled: true},
			{ID: 1, Name: "drops", Unit: "", Type: Int32},
		},
		Logs: []LogInfo{
			{ID: 0, Name: "init", Level: LevelInfo},
		},
	}
}

func TestDaemonRegistration(t *testing.T) {
	data, err := EncodeRegistration(RegisterInit, testRegistration())
	require.NoError(t, err)

	cmd, payload, err := ParseHeader(data)
	require.NoError(t, err)
	assert.Equal(t, RegisterInit, cmd)

	got, err := DecodeRegistration(payload)
	require.NoError(t, err)
	assert.Equal(t, testRegistration(), got)
}

func TestDaemonRegistrationRejectsMalformed(t *testing.T) {
	data, err := EncodeRegistration(RegisterLive, testRegistration())
	require.NoError(t, err)

	payload := data[HeaderLen:]

	t.Run("truncated", func(t *testing.T) {
		for n := 0; n < len(payload); n++ {
			_, err := DecodeRegistration(payload[:n])
			require.Error(t, err, "prefix of %d bytes", n)
		}
	})

	t.Run("trailing", func(t *testing.T) {
		_, err := DecodeRegistration(append(append([]byte{}, payload...), 0))
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("overlong_name", func(t *testing.T) {
		bad := append([]byte{}, payload...)
		bad[3] = 200
		_, err := DecodeRegistration(bad)
		assert.Error(t, err)
	})
}

// Daemons only use bit 7; a bit 6 from a daemon is not a displayed flag.
func TestFlagBitsPerDirection(t *testing.T) {
	assert.Equal(t, uint8(0x82), PackType(Double64, true, false))
	assert.Equal(t, uint8(0xc2), PackType(Double64, true, true))
	assert.Equal(t, uint8(0x41), PackType(Float32, false, true))

	typ, enabled, err := UnpackDaemonType(0x82)
	require.NoError(t, err)
	assert.Equal(t, Double64, typ)
	assert.True(t, enabled)

	_, _, err = UnpackDaemonType(0xc2)
	require.ErrorIs(t, err, ErrUnknownStorageType)

	typ, enabled, displayed, err := UnpackType(0xc2)
	require.NoError(t, err)
	assert.Equal(t, Double64, typ)
	assert.True(t, enabled)
	assert.True(t, displayed)

	typ, enabled, displayed, err = UnpackType(0x41)
	require.NoError(t, err)
	assert.Equal(t, Float32, typ)
	assert.False(t, enabled)
	assert.True(t, displayed)
}

func TestProgramRegistrationSingleDatagram(t *testing.T) {
	in := &ProgramRegistration{
		HostID:    0,
		ProgramID: 3,
		FullName:  "st1.uplink",
		Probes: []ProbeInfo{
			{ID: 0, Name: "throughput", Unit: "kbps", Type: Double64, Enabled: true, Displayed: true},
		},
	}

	chunks, err := EncodeProgramRegistration(in, MaxDatagramSize)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	cmd, payload, err := ParseHeader(chunks[0])
	require.NoError(t, err)
	assert.Equal(t, MgrRegisterProgram, cmd)

	out, err := DecodeProgramRegistration(payload)
	require.NoError(t, err)
	assert.Equal(t, in.FullName, out.FullName)
	assert.Equal(t, in.Probes, out.Probes)
	assert.Empty(t, out.Logs)
}

func TestProgramRegistrationEmptyProgram(t *testing.T) {
	chunks, err := EncodeProgramRegistration(&ProgramRegistration{FullName: "gw.idle"}, MaxDatagramSize)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestProgramRegistrationChunked(t *testing.T) {
	in := &ProgramRegistration{HostID: 7, ProgramID: 9, FullName: "sat.emulator"}

	for i := 0; i < 200; i++ {
		in.Probes = append(in.Probes, ProbeInfo{
			ID:      uint8(i),
			Name:    fmt.Sprintf("probe_with_a_rather_long_name_%03d", i),
			Unit:    "packets per second",
			Type:    StorageType(i % 3),
			Enabled: i%2 == 0,
		})
	}

	for i := 0; i < 100; i++ {
		in.Logs = append(in.Logs, LogInfo{ID: uint8(i), Name: fmt.Sprintf("log_%03d", i), Level: LevelNotice})
	}

	const limit = 1024

	chunks, err := EncodeProgramRegistration(in, limit)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var probes []ProbeInfo

	var logs []LogInfo

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), limit)

		_, payload, err := ParseHeader(c)
		require.NoError(t, err)

		reg, err := DecodeProgramRegistration(payload)
		require.NoError(t, err)
		assert.Equal(t, uint8(7), reg.HostID)
		assert.Equal(t, uint8(9), reg.ProgramID)

		probes = append(probes, reg.Probes...)
		logs = append(logs, reg.Logs...)
	}

	assert.Equal(t, in.Probes, probes)
	assert.Equal(t, in.Logs, logs)
}

func TestProgramRegistrationTooSmall(t *testing.T) {
	in := &ProgramRegistration{
		FullName: "a.b",
		Probes:   []ProbeInfo{{Name: "throughput", Unit: "kbps"}},
	}

	_, err := EncodeProgramRegistration(in, 16)
	assert.ErrorIs(t, err, ErrDatagramTooSmall)
}

func TestSamples(t *testing.T) {
	types := map[uint8]StorageType{0: Double64, 1: Int32, 2: Float32}
	lookup := func(id uint8) (StorageType, bool) {
		typ, ok := types[id]
		return typ, ok
	}

	in := []Sample{{0, 42.5}, {1, -3}, {2, 0.5}}

	w := NewMessage(MgrSendProbes)
	require.NoError(t, w.PutSamples(in, lookup))

	out, err := ReadSamples(NewReader(w.Bytes()[HeaderLen:]), lookup)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = ReadSamples(NewReader([]byte{5, 0, 0, 0, 0}), lookup)
	require.ErrorIs(t, err, ErrUnknownProbe)

	_, err = ReadSamples(NewReader([]byte{0, 1, 2}), lookup)
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestFullID(t *testing.T) {
	id := FullID(2, 5)
	assert.Equal(t, uint16(0x0205), id)

	h, p := SplitID(id)
	assert.Equal(t, uint8(2), h)
	assert.Equal(t, uint8(5), p)
}
