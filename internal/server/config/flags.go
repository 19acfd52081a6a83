package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret
//	-m string   allowed email domain (e.g., "@istun.edu.tr")
//	-D string   reveal deadline, ISO-8601 local time
//	-L string   reveal deadline location (e.g., "Europe/Istanbul")
//	-o string   invite link origin
//	-x int      archive link validity, minutes
//	-f string   live feed mode: listen or local
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-m", "-D", "-L", "-o", "-x", "-f", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AllowedEmailDomain, "m", config.AllowedEmailDomain, "allowed email domain")
	fs.StringVar(&config.RevealDeadline, "D", config.RevealDeadline, "reveal deadline")
	fs.StringVar(&config.RevealLocation, "L", config.RevealLocation, "reveal deadline location")
	fs.StringVar(&config.InviteOrigin, "o", config.InviteOrigin, "invite link origin")

	archiveLinkValidity := fs.Int("x", int(config.ArchiveLinkValidity.Minutes()), "archive_link_validity (in minutes)")

	fs.StringVar(&config.FeedMode, "f", config.FeedMode, "live feed mode (listen|local)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ArchiveLinkValidity = time.Duration(*archiveLinkValidity) * time.Minute
}
