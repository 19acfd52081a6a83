package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used only for decoding config files. Intervals use
// timex.Duration so they may be written as "1s" or as integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	SessionToken       string         `json:"session_token" yaml:"session_token"`
	DatabasePath       string         `json:"database_path" yaml:"database_path"`
	RevealDeadline     string         `json:"reveal_deadline" yaml:"reveal_deadline"`
	RevealLocation     string         `json:"reveal_location" yaml:"reveal_location"`
	InviteOrigin       string         `json:"invite_origin" yaml:"invite_origin"`
	TickInterval       timex.Duration `json:"tick_interval" yaml:"tick_interval"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseFile overlays cfg with the file at path. An empty path loads nothing.
// Files ending in .yaml or .yml are YAML, anything else JSON.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&cfg.ServerEndpointAddr, fc.ServerEndpointAddr)
	setIf(&cfg.SessionToken, fc.SessionToken)
	setIf(&cfg.DatabasePath, fc.DatabasePath)
	setIf(&cfg.RevealDeadline, fc.RevealDeadline)
	setIf(&cfg.RevealLocation, fc.RevealLocation)
	setIf(&cfg.InviteOrigin, fc.InviteOrigin)
	if fc.TickInterval.Duration > 0 {
		cfg.TickInterval = fc.TickInterval.Duration
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	return nil
}
