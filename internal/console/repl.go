package console

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App implements
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Items(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Add(ctx context.Context) error
	Remove(ctx context.Context) error
	Log(ctx context.Context) error
	Delete(ctx context.Context) error
	History(ctx context.Context) error
	Stats(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them to a. The loop
// exits on EOF or on "exit"/"quit". Handler errors are printed and the loop
// carries on.
//
//	Not signed in:  help, login, exit
//	Signed in:      help, items, search <text>, add, remove, log, delete,
//	                history, stats, logout, exit
//
// Commands and their prompts share reader, so piped input works line by line.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pt %s> ", statusFn()))
		line, rerr := reader.ReadString('\n')
		if rerr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (i)tems, search <text>, add, remove, log, delete, history, stats, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "i", "items":
			err = a.Items(ctx)
		case "search":
			if len(args) == 0 {
				printlnFn("Usage: search <text>")
				continue
			}
			err = a.Search(ctx, strings.Join(args, " "))
		case "add":
			err = a.Add(ctx)
		case "remove":
			err = a.Remove(ctx)
		case "log":
			err = a.Log(ctx)
		case "delete":
			err = a.Delete(ctx)
		case "history":
			err = a.History(ctx)
		case "stats":
			err = a.Stats(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err.Error())
		}
	}
}
