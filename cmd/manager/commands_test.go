package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowRun(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"st1/uplink/throughput.log": "kbps\n999 1.5\n1000 42.5\n",
		"st1/uplink/event_log.txt":  "1000.000000 init started\n",
		"gw/downlink/rate.log":      "Mbps\n",
	}

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"show-run", "--points", dir})

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "st1.uplink.throughput")
	assert.Contains(t, text, "1000 42.5")
	assert.Contains(t, text, "gw.downlink.rate")
	assert.Contains(t, text, "st1.uplink: 1 event(s)")
	assert.Contains(t, text, "\nst1.uplink.throughput (kbps)\n999 1.5\n1000 42.5\n")
}

func TestShowRunMissingDir(t *testing.T) {
	rootCmd.SetArgs([]string{"show-run", filepath.Join(t.TempDir(), "missing")})
	rootCmd.SetErr(&bytes.Buffer{})

	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	require.Error(t, rootCmd.Execute())
}
