package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	isSignedIn() bool
	Link(ctx context.Context) error
	List(ctx context.Context) error
	Open(ctx context.Context, entryID string) error
	Stats(ctx context.Context) error
	Countdown(ctx context.Context) error
	Profile(ctx context.Context, displayName, email string) error
	Export(ctx context.Context, path string) error
	Write(ctx context.Context, link string) error
	SignIn(ctx context.Context, token string) error
	SignOut(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signin <token>, write <link>, countdown, exit"
	helpSignedIn  = "Available commands: link, (l)ist, open <id>, stats, countdown, profile <name> [email], export [file], write <link>, signout, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit", and
// dispatches them to a. Handler errors are printed and the loop continues.
//
//	Signed out:
//	  - signin <token>        start a session
//	  - write <link>          write into someone's book
//	  - countdown             time left until the reveal
//	  - exit | quit
//
//	Signed in, additionally:
//	  - link                  your invite link
//	  - list | l              your book, newest first
//	  - open <id>             reveal one message
//	  - stats                 message and author counts
//	  - profile <name> [email]
//	  - export [file]         archive your book after the reveal
//	  - signout
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "keepsake %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isSignedIn() {
				fmt.Fprintln(w, helpSignedIn)
			} else {
				fmt.Fprintln(w, helpSignedOut)
			}

		case "signin":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: signin <token>")
				continue
			}
			cmdErr = a.SignIn(ctx, args[0])

		case "signout":
			cmdErr = a.SignOut(ctx)

		case "link":
			cmdErr = a.Link(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)

		case "open":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: open <id>")
				continue
			}
			cmdErr = a.Open(ctx, args[0])

		case "stats":
			cmdErr = a.Stats(ctx)

		case "countdown":
			cmdErr = a.Countdown(ctx)

		case "profile":
			if len(args) == 0 || len(args) > 2 {
				fmt.Fprintln(w, "Usage: profile <name> [email]")
				continue
			}
			email := ""
			if len(args) == 2 {
				email = args[1]
			}
			cmdErr = a.Profile(ctx, args[0], email)

		case "export":
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			cmdErr = a.Export(ctx, path)

		case "write":
			if len(args) != 1 {
				fmt.Fprintln(w, "Usage: write <link>")
				continue
			}
			cmdErr = a.Write(ctx, args[0])

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", describe(cmdErr))
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}
