package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsync/internal/adapter"
)

var asiaDump = filepath.Join("..", "..", "internal", "service", "testdata", "asia.yaml")

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "netsync dev\n", out)
}

func TestLoadCommand(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")
	db := filepath.Join(t.TempDir(), "runs", "netsync.db")
	export := filepath.Join(t.TempDir(), "snapshot.yaml")

	out, err := execute(t, "load", "-c", cfg, "--db", db, "--source", asiaDump,
		"--export", export, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Devices: 3 input, 2 loaded, 1 quarantined, 0 excluded")
	assert.Contains(t, out, "device=2")
	assert.Contains(t, out, "(changed)")
	assert.FileExists(t, export)

	out, err = execute(t, "load", "-c", cfg, "--db", db, "--source", asiaDump)
	require.NoError(t, err)
	assert.Contains(t, out, "(unchanged)")

	t.Run("runs", func(t *testing.T) {
		out, err := execute(t, "runs", "-c", cfg, "--db", db)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "ID"))
		assert.Contains(t, lines[1], "succeeded")
	})

	t.Run("quarantine", func(t *testing.T) {
		out, err := execute(t, "quarantine", "-c", cfg, "--db", db)
		require.NoError(t, err)

		var records []adapter.QuarantineRecord
		require.NoError(t, json.Unmarshal([]byte(out), &records))
		require.Len(t, records, 1)
		assert.Equal(t, adapter.ReasonMissingHostname, records[0].Reason)
		assert.Equal(t, "d3", records[0].Device.ID)
	})
}

func TestLoadCommandTenantFromEnv(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")
	t.Setenv("NETSYNC_LOAD_TENANT", "acme")

	out, err := execute(t, "load", "-c", cfg, "--source", asiaDump)
	require.NoError(t, err)
	assert.Contains(t, out, "namespace acme")
}

func TestLoadCommandErrors(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")

	t.Run("no source", func(t *testing.T) {
		_, err := execute(t, "load", "-c", cfg)
		assert.ErrorContains(t, err, "controller dump must be provided")
	})

	t.Run("missing source file", func(t *testing.T) {
		_, err := execute(t, "load", "-c", cfg, "--source", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to open source")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := execute(t, "load", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to load configuration")
	})

	t.Run("invalid export format", func(t *testing.T) {
		_, err := execute(t, "load", "-c", cfg, "--source", asiaDump, "--format", "xml")
		assert.ErrorContains(t, err, "invalid config")
	})
}

func TestQuarantineCommandRequiresDatabase(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")
	_, err := execute(t, "quarantine", "-c", cfg)
	assert.ErrorContains(t, err, "requires a database")
}

func TestWatchCommand(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")
	db := filepath.Join(t.TempDir(), "netsync.db")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"watch", "-c", cfg, "--db", db, "--source", asiaDump, "--listen", "127.0.0.1:0"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, out.String(), "Devices: 3 input, 2 loaded, 1 quarantined, 0 excluded")
}

func TestWatchCommandBadListenAddress(t *testing.T) {
	cfg := writeConfig(t, "logger:\n  level: error\n")
	_, err := execute(t, "watch", "-c", cfg, "--source", asiaDump, "--listen", "not-an-address")
	assert.ErrorContains(t, err, "listen on")
}
