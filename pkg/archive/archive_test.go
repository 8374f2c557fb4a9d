package archive

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceive(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "st1", "uplink"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "gw", "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "st1", "uplink", "throughput.log"), []byte("kbps\n1000 42.5\n"), 0o644))

	var stream bytes.Buffer

	n, err := Send(&stream, src)
	require.NoError(t, err)
	assert.Equal(t, n+4, stream.Len())

	dest := t.TempDir()
	require.NoError(t, Receive(&stream, dest))

	data, err := os.ReadFile(filepath.Join(dest, "st1", "uplink", "throughput.log"))
	require.NoError(t, err)
	assert.Equal(t, "kbps\n1000 42.5\n", string(data))
	assert.DirExists(t, filepath.Join(dest, "gw", "empty"))
}

func TestReceiveTruncated(t *testing.T) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], 100)

	err := Receive(bytes.NewReader(append(size[:], 1, 2, 3)), t.TempDir())
	assert.Error(t, err)

	err = Receive(bytes.NewReader([]byte{0, 0}), t.TempDir())
	assert.Error(t, err)
}

func TestUnzipRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../escape.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dest := t.TempDir()
	err = Unzip(bytes.NewReader(buf.Bytes()), int64(buf.Len()), dest)
	require.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.txt"))
}
