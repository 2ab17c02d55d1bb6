// main.go - Command line tool that identifies the local machine
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"anchorprint/app"
	"anchorprint/internal/config"
	"anchorprint/internal/logging"
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command against a loaded agent
	Execute(ctx context.Context, env *Env, args []string) error
}

// Env is what every command runs with.
type Env struct {
	Agent  *app.Agent
	Out    io.Writer
	Format string
	Indent bool
	Debug  bool
}

// The set of available commands
var commands = []Command{
	&IDCommand{},
	&AnchorCommand{},
	&SignalsCommand{},
	&HelpCommand{},
}

var errUnknownCommand = errors.New("unknown command")

// loadAgent starts the collection round and returns the closer of its log
// output; replaced in tests.
var loadAgent = func(ctx context.Context, debug bool) (*app.Agent, io.Closer) {
	cfg := config.GetConfig()
	logger, closer := logging.NewWithWriter(cfg, os.Stderr)
	return app.Load(ctx, app.Options{Debug: debug, Logger: logger}), closer
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, aborting...", sig)
		cancel()
	}()

	indent := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(ctx, os.Args[1:], os.Stdout, indent); err != nil {
		if errors.Is(err, errUnknownCommand) {
			usage(os.Stderr)
			os.Exit(2)
		}
		log.Fatalf("Command failed: %v", err)
	}
}

// run parses global flags, finds the command and executes it.
func run(ctx context.Context, argv []string, out io.Writer, indent bool) error {
	fs := flag.NewFlagSet("apctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	debug := fs.Bool("debug", false, "log a diagnostic dump of the identification")
	format := fs.String("format", formatJSON, "output format: json or yaml")
	if err := fs.Parse(argv); err != nil {
		return fmt.Errorf("%w: %v", errUnknownCommand, err)
	}
	if *format != formatJSON && *format != formatYAML {
		return fmt.Errorf("unsupported format %q", *format)
	}

	cmdName, args := parseArgs(fs.Args())
	cmd := findCommand(cmdName)
	if cmd == nil {
		return fmt.Errorf("%w: %s", errUnknownCommand, cmdName)
	}

	env := &Env{Out: out, Format: *format, Indent: indent, Debug: *debug}
	if _, isHelp := cmd.(*HelpCommand); !isHelp {
		agent, logCloser := loadAgent(ctx, *debug)
		defer logCloser.Close()
		env.Agent = agent
	}
	return cmd.Execute(ctx, env, args)
}

// parseArgs splits the command name from its arguments
func parseArgs(args []string) (string, []string) {
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: apctl [-debug] [-format json|yaml] [command]")
	fmt.Fprintln(w, "Available commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s: %s\n", cmd.Name(), cmd.Description())
	}
}
