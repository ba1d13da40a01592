package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Config config.Config
	In     io.Reader
	Out    io.Writer
	Err    io.Writer

	app *app
}

// usageError marks bad invocations, which exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) < 1 {
		printUsage(errOut)
		return 2
	}

	cmdName := args[0]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", cmdName)
		printUsage(errOut)
		return 2
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(errOut, "load config: %v\n", err)
		return 1
	}
	setupLogging(cfg, errOut)

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Config: cfg,
		In:     in,
		Out:    out,
		Err:    errOut,
	}
	defer cmdCtx.close()

	if runErr := cmd.run(cmdCtx, args[1:]); runErr != nil {
		var usageErr *usageError
		if errors.As(runErr, &usageErr) {
			fmt.Fprintf(errOut, "%s\nusage: sessionctl %s %s\n", usageErr.msg, cmd.name, cmd.usage)
			return 2
		}
		log.Err(runErr).Str("command", cmdName).Msg("Command failed")
		fmt.Fprintln(errOut, runErr)
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			usage:       "-u <username> [-p <password>]",
			description: "Sign in and store the session",
			run:         runLogin,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and clear the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Show the signed-in user and token expiry",
			run:         runWhoAmI,
		},
		"refresh": {
			name:        "refresh",
			description: "Refresh the access token now",
			run:         runRefresh,
		},
		"check": {
			name:        "check",
			usage:       "-role <ROLE> | -any <ROLE,ROLE>",
			description: "Run the role gate for the stored session",
			run:         runCheck,
		},
		"get": {
			name:        "get",
			usage:       "<resource>",
			description: "Fetch an API resource with the stored session",
			run:         runGet,
		},
		"watch": {
			name:        "watch",
			description: "Keep the stored session fresh until interrupted",
			run:         runWatch,
		},
		"serve": {
			name:        "serve",
			description: "Run the local dashboard",
			run:         runServe,
		},
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: sessionctl <command> [flags]\n\n")
	fmt.Fprintf(w, "Available commands:\n")

	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		fmt.Fprintf(w, "  %-10s %-34s %s\n", c.name, c.usage, c.description)
	}
}

func setupLogging(cfg config.EnvConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
