package cli

import (
	"log/slog"

	"github.com/dmitrijs2005/keepsake/internal/client/config"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands. Flags override the config
// file only when set explicitly.
type RootOptions struct {
	ConfigPath string
	Server     string
	Token      string
	Database   string
	Deadline   string
	Location   string
	Origin     string
	Verbose    bool
}

// NewRootCommand creates the root command for the keepsake CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keepsake",
		Short: "Keepsake - a memory book that opens on a set day",
		Long: `Keepsake collects messages written for you through your invite link and
keeps them sealed until the reveal deadline.`,
		SilenceUsage: true,
	}

	var defaults config.Config
	defaults.LoadDefaults()

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "path to a JSON or YAML config file")
	pf.StringVarP(&opts.Server, "server", "a", defaults.ServerEndpointAddr, "server gRPC address")
	pf.StringVar(&opts.Token, "token", "", "session token (see dev-session)")
	pf.StringVar(&opts.Database, "db", defaults.DatabasePath, "local SQLite file for reveal decisions")
	pf.StringVar(&opts.Deadline, "deadline", defaults.RevealDeadline, "reveal deadline, local time or RFC3339")
	pf.StringVar(&opts.Location, "location", defaults.RevealLocation, "time zone the deadline is read in")
	pf.StringVar(&opts.Origin, "origin", defaults.InviteOrigin, "base URL of invite links")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewDevSessionCommand(opts))

	return cmd
}

// loadConfig applies defaults, then the config file, then changed flags.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overlay := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	overlay("server", &cfg.ServerEndpointAddr, opts.Server)
	overlay("token", &cfg.SessionToken, opts.Token)
	overlay("db", &cfg.DatabasePath, opts.Database)
	overlay("deadline", &cfg.RevealDeadline, opts.Deadline)
	overlay("location", &cfg.RevealLocation, opts.Location)
	overlay("origin", &cfg.InviteOrigin, opts.Origin)

	return cfg, nil
}

func newLogger(cmd *cobra.Command, opts *RootOptions) logging.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return logging.NewText(cmd.ErrOrStderr(), level)
}
