package config

import "time"

// Config holds runtime settings for the keepsake CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - SessionToken: session token issued by the identity provider.
//   - DatabasePath: SQLite file holding local reveal decisions.
//   - RevealDeadline / RevealLocation: must match the server's.
//   - InviteOrigin: base URL invite links are built on.
//   - TickInterval: how often the dashboard re-evaluates the reveal clock.
//   - RequestTimeout: per-call deadline for unary requests.
type Config struct {
	ServerEndpointAddr string
	SessionToken       string
	DatabasePath       string
	RevealDeadline     string
	RevealLocation     string
	InviteOrigin       string
	TickInterval       time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionToken = ""
	c.DatabasePath = "keepsake.db"
	c.RevealDeadline = "2025-06-20T00:00:00"
	c.RevealLocation = "Local"
	c.InviteOrigin = "http://localhost:3000"
	c.TickInterval = time.Second
	c.RequestTimeout = 10 * time.Second
}

// Load applies defaults and then the optional config file at path. Command
// line flags are applied on top by the CLI.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
