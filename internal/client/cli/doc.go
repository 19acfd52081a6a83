// Package cli provides the keepsake command-line client.
//
// The root command carries the connection and reveal settings shared by every
// subcommand:
//   - dashboard: an interactive session over your own book. A session
//     controller keeps a live subscription open, a background watcher pings
//     the server, and a REPL reads commands (see runREPL).
//   - write: the authoring flow for someone else's invite link.
//   - dev-session: mints a session token with the server's shared secret.
//
// Settings are resolved defaults first, then the optional config file, then
// flags that were set explicitly.
package cli
