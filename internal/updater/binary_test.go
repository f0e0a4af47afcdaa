package updater

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brown-library/bdr-scripts/pkg/config"
)

func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "update_mods")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func binaryConfig(path string, timeout time.Duration) config.UpdateConfig {
	return config.UpdateConfig{
		BinaryPath: path,
		Timeout:    timeout,
		Binary: config.BinaryConfig{
			APIAgent:    "agent",
			APIIdentity: "identity",
			APIRootURL:  "https://example.org/api",
			LogLevel:    "INFO",
			Message:     "bulk update",
		},
	}
}

func TestBinaryUpdaterSuccess(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	bin := fakeBinary(t, `echo "$@ $UM__MESSAGE $UM__API_AGENT" > "`+out+`"
echo "done"
`)
	err := NewBinaryUpdater(binaryConfig(bin, 10*time.Second)).Update(context.Background(), "/mods/HH123456.mods.xml", "bdr:abc")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "--mods_filepath /mods/HH123456.mods.xml --bdr_pid bdr:abc bulk update agent\n", string(data))
}

func TestBinaryUpdaterStderrIsFailure(t *testing.T) {
	bin := fakeBinary(t, `echo "bad MODS" >&2
exit 0
`)
	err := NewBinaryUpdater(binaryConfig(bin, 10*time.Second)).Update(context.Background(), "p", "bdr:abc")
	require.Error(t, err)
	assert.Equal(t, "bad MODS", err.Error())
}

func TestBinaryUpdaterNonZeroExit(t *testing.T) {
	bin := fakeBinary(t, "exit 3\n")
	err := NewBinaryUpdater(binaryConfig(bin, 10*time.Second)).Update(context.Background(), "p", "bdr:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestBinaryUpdaterTimeout(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 10\n")
	start := time.Now()
	err := NewBinaryUpdater(binaryConfig(bin, 100*time.Millisecond)).Update(context.Background(), "p", "bdr:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBinaryUpdaterTimeoutKillsChildren(t *testing.T) {
	bin := fakeBinary(t, "sleep 5\necho finished\n")
	start := time.Now()
	err := NewBinaryUpdater(binaryConfig(bin, 100*time.Millisecond)).Update(context.Background(), "p", "bdr:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestBinaryUpdaterCancelKillsChildren(t *testing.T) {
	bin := fakeBinary(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	start := time.Now()
	err := NewBinaryUpdater(binaryConfig(bin, 10*time.Second)).Update(ctx, "p", "bdr:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update binary error")
	assert.Less(t, time.Since(start), 3*time.Second)
}
