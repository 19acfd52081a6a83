package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/flagx"
	"github.com/dmitrijs2005/keepsake/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Fields
// left empty in the file do not override what is already set.
type FileConfig struct {
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey           string         `json:"secret_key" yaml:"secret_key"`
	AllowedEmailDomain  string         `json:"allowed_email_domain" yaml:"allowed_email_domain"`
	RevealDeadline      string         `json:"reveal_deadline" yaml:"reveal_deadline"`
	RevealLocation      string         `json:"reveal_location" yaml:"reveal_location"`
	InviteOrigin        string         `json:"invite_origin" yaml:"invite_origin"`
	ArchiveLinkValidity timex.Duration `json:"archive_link_validity" yaml:"archive_link_validity"`
	FeedMode            string         `json:"feed_mode" yaml:"feed_mode"`
	S3RootUser          string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region            string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseFile loads values from the file named by -c/-config. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. A missing flag
// means nothing is loaded; an unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.AllowedEmailDomain, c.AllowedEmailDomain)
	setIf(&config.RevealDeadline, c.RevealDeadline)
	setIf(&config.RevealLocation, c.RevealLocation)
	setIf(&config.InviteOrigin, c.InviteOrigin)
	if c.ArchiveLinkValidity.Duration > 0 {
		config.ArchiveLinkValidity = c.ArchiveLinkValidity.Duration
	}
	setIf(&config.FeedMode, c.FeedMode)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
