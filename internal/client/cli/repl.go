package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// commander is the command surface the loop dispatches to.
type commander interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	Me(ctx context.Context) error
	Check(ctx context.Context) error
	Logout(ctx context.Context) error
}

// ErrUnknownCommand is returned by dispatch for a name it does not know.
type ErrUnknownCommand string

func (e ErrUnknownCommand) Error() string {
	return "unknown command: " + string(e)
}

func dispatch(ctx context.Context, a commander, cmd string, w io.Writer) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			fmt.Fprintln(w, "Available commands: me, check, logout, exit")
		} else {
			fmt.Fprintln(w, "Available commands: register, login, verify, resend, check, exit")
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "verify":
		return a.Verify(ctx)
	case "resend":
		return a.Resend(ctx)
	case "me":
		return a.Me(ctx)
	case "check":
		return a.Check(ctx)
	case "logout":
		return a.Logout(ctx)
	default:
		return ErrUnknownCommand(cmd)
	}
}

// runREPL reads commands until EOF, exit or quit. Commands share reader for
// their own prompts. Command errors have already been shown to the user and
// do not stop the loop.
func runREPL(ctx context.Context, a commander, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "krishi (%s)> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			var unknown ErrUnknownCommand
			if err := dispatch(ctx, a, cmd, w); err != nil && errors.As(err, &unknown) {
				fmt.Fprintln(w, "Unknown command:", cmd)
			}
		}
	}
}
