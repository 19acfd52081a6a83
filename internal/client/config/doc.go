// Package config loads runtime configuration for the keepsake CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file passed with --config.
//  3. Command-line flags registered by the CLI, which override earlier values.
//
// # File schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "session_token": "eyJhbGciOi...",
//	  "database_path": "keepsake.db",
//	  "reveal_deadline": "2025-06-20T00:00:00",
//	  "reveal_location": "Europe/Istanbul",
//	  "invite_origin": "https://keepsake.example",
//	  "tick_interval": "1s",
//	  "request_timeout": "10s"
//	}
//
// Empty values in the file leave the defaults in place.
package config
