package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()

	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, dir, "flag.json", map[string]any{
			"endpoint_addr_grpc":    "www.example:9000",
			"database_dsn":          "keepsake-db",
			"secret_key":            "my_secret_key",
			"allowed_email_domain":  "@istun.edu.tr",
			"reveal_deadline":       "2026-06-20T00:00:00",
			"archive_link_validity": "30m",
			"feed_mode":             "local",
			"s3_bucket":             "bucket",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "keepsake-db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, "@istun.edu.tr", cfg.AllowedEmailDomain)
		assert.Equal(t, "2026-06-20T00:00:00", cfg.RevealDeadline)
		assert.Equal(t, 30*time.Minute, cfg.ArchiveLinkValidity)
		assert.Equal(t, FeedModeLocal, cfg.FeedMode)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		// untouched by the file
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("loads from yaml", func(t *testing.T) {
		path := filepath.Join(dir, "server.yaml")
		require.NoError(t, os.WriteFile(path, []byte("endpoint_addr_grpc: \":7000\"\nreveal_location: Europe/Istanbul\narchive_link_validity: 2m\n"), 0o600))
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		parseFile(cfg)

		assert.Equal(t, ":7000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "Europe/Istanbul", cfg.RevealLocation)
		assert.Equal(t, 2*time.Minute, cfg.ArchiveLinkValidity)
	})

	t.Run("no config flag leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", SecretKey: "key"}
		parseFile(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
