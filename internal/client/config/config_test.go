package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "keepsake.db", c.DatabasePath)
	assert.Equal(t, "2025-06-20T00:00:00", c.RevealDeadline)
	assert.Equal(t, "Local", c.RevealLocation)
	assert.Equal(t, time.Second, c.TickInterval)
	assert.Empty(t, c.SessionToken)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Files(t *testing.T) {
	want := defaults()
	want.ServerEndpointAddr = "keepsake.example:443"
	want.SessionToken = "tok"
	want.RevealLocation = "Europe/Istanbul"
	want.TickInterval = 2 * time.Second

	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "json",
			file: "client.json",
			body: `{"server_endpoint_addr":"keepsake.example:443","session_token":"tok","reveal_location":"Europe/Istanbul","tick_interval":"2s"}`,
		},
		{
			name: "yaml",
			file: "client.yaml",
			body: "server_endpoint_addr: keepsake.example:443\nsession_token: tok\nreveal_location: Europe/Istanbul\ntick_interval: 2s\n",
		},
		{
			name: "json nanoseconds",
			file: "client.json",
			body: `{"server_endpoint_addr":"keepsake.example:443","session_token":"tok","reveal_location":"Europe/Istanbul","tick_interval":2000000000}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", `{ this is not valid json`))
	require.Error(t, err)

	_, err = Load(writeFile(t, "bad.yml", "tick_interval: [1, 2"))
	require.Error(t, err)
}
