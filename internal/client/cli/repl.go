package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Generate(ctx context.Context, args []string) error
	Export(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, generate [length] [ulns], exit"
	helpLoggedIn  = "Available commands: profile, (l)ist, show <id>, add, edit <id>, delete <id>, generate [length] [ulns], export, logout, exit"
)

// runREPL reads commands line by line and dispatches them to a. It returns
// on EOF or when the user types "exit" or "quit". Command errors are printed
// and do not end the loop. Commands prompt through the same reader, so the
// loop must not buffer ahead of them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pv %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "generate", "gen":
			err = a.Generate(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "profile", "l", "list", "show", "add", "edit", "delete", "export", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = dispatchAuthenticated(ctx, a, cmd, args)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatchAuthenticated(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "profile":
		return a.Profile(ctx)
	case "l", "list":
		return a.List(ctx)
	case "show":
		return a.Show(ctx, args)
	case "add":
		return a.Add(ctx)
	case "edit":
		return a.Edit(ctx, args)
	case "delete":
		return a.Delete(ctx, args)
	case "export":
		return a.Export(ctx)
	default:
		return a.Logout(ctx)
	}
}
