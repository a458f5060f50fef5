package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"installer-shell/internal/adapter/tui/installer"
	"installer-shell/internal/domain"
	"installer-shell/internal/infra/config"
	"installer-shell/internal/infra/logger"
	"installer-shell/internal/infra/tracer"
	"installer-shell/internal/usecase/eventloop"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		case "doctor":
			if err := runDoctor(); err != nil {
				fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
				os.Exit(1)
			}
			return
		}
		if !strings.HasPrefix(os.Args[1], "-") {
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'installer --help' for usage information.\n", os.Args[1])
			os.Exit(int(domain.ExitFailure))
		}
	}

	code, err := run(parseFlags(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		if code == domain.ExitSuccess {
			code = domain.ExitCodeOf(err)
		}
	}
	os.Exit(int(code))
}

func showUsage() {
	fmt.Println(`installer - page-driven installation wizard

USAGE:
    installer [COMMAND] [FLAGS]

COMMANDS:
    doctor      Run the configured preconditions and health checks

    (no command) - Run the installation wizard

FLAGS:
    -h, --help         Show this help message
    --config PATH      Specify config file path (default: ./installer.yaml)
    --silent           Run without a user interface
    --script PATH      Control script (.js or .wasm), overrides scripts.control
    --mode MODE        install, update, uninstall or maintain

CONFIGURATION:
    Config file: ./installer.yaml
    Environment: INSTALLER_* variables override config

EXIT CODES:
    0 success, 1 failure, 2 canceled, 3 no GPU, 4 unsupported system,
    5 missing dependency, 6 validation failed, 7 configuration error

EXAMPLES:
    installer                                  # Interactive install
    installer --silent --mode uninstall        # Headless removal
    installer --script control.js              # Scripted page flow
    installer doctor                           # Check the system`)
}

// cliFlags holds the command line options of a wizard run.
type cliFlags struct {
	ConfigPath string
	Silent     bool
	Script     string
	Mode       string
}

// parseFlags extracts --config, --silent, --script and --mode from args.
func parseFlags(args []string) cliFlags {
	flags := cliFlags{ConfigPath: configPath(args)}
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--silent":
			flags.Silent = true
		case args[i] == "--script" && i+1 < len(args):
			flags.Script = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--script="):
			flags.Script = strings.TrimPrefix(args[i], "--script=")
		case args[i] == "--mode" && i+1 < len(args):
			flags.Mode = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--mode="):
			flags.Mode = strings.TrimPrefix(args[i], "--mode=")
		}
	}
	return flags
}

// configPath returns the --config flag, INSTALLER_CONFIG, or the default.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("INSTALLER_CONFIG"); p != "" {
		return p
	}
	return "installer.yaml"
}

func run(flags cliFlags) (domain.ExitCode, error) {
	// 1. Config
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return domain.ExitConfigError, fmt.Errorf("config: %w: %w", domain.ErrConfigLoad, err)
	}
	if flags.Script != "" {
		cfg.Scripts.Control = flags.Script
	}
	if flags.Mode != "" {
		cfg.Wizard.Mode = flags.Mode
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return domain.ExitConfigError, fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return domain.ExitConfigError, fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.WithoutCancel(ctx))

	// 3. Wizard
	var dispatcher domain.Dispatcher
	var loop *eventloop.Loop
	var tuiDispatcher *installer.Dispatcher
	prompter := installer.NewPrompter()
	if flags.Silent {
		loop = eventloop.New(log)
		dispatcher = loop
	} else {
		tuiDispatcher = installer.NewDispatcher()
		dispatcher = tuiDispatcher
	}

	app, err := build(ctx, cfg, dispatcher, prompter, log)
	if err != nil {
		return domain.ExitCodeOf(err), err
	}
	defer app.Close(context.WithoutCancel(ctx))

	// 4. Run
	if flags.Silent {
		log.Info("silent run", "mode", app.engine.Mode().String())
		code := app.wizard.RunSilent(ctx, loop)
		return code, nil
	}

	model := installer.New(ctx, installer.Config{
		Controller: app.wizard,
		Dispatcher: tuiDispatcher,
		Prompter:   prompter,
		Logger:     log,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiDispatcher.Attach(p.Send)

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return domain.ExitFailure, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(installer.Model)
	if !ok || !m.Closed() {
		// Killed by a signal before the wizard closed.
		app.engine.Interrupt()
		return domain.ExitCanceled, nil
	}
	return m.ExitCode(), nil
}
