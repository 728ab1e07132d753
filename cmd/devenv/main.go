package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/animalet/devenv/pkg/config"
	"github.com/animalet/devenv/pkg/devenv"
	"github.com/animalet/devenv/pkg/dotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version information set during build
var (
	version = "dev"
)

const (
	exitSuccess = 0
	exitError   = 1

	defaultSource = "/cmd/devenv"
)

type options struct {
	configPath  string
	file        string
	source      string
	debug       bool
	dryRun      bool
	showHelp    bool
	showVersion bool
}

// plan is everything needed for one run
type plan struct {
	entries []devenv.Entry
	file    string
	source  string
	readme  string
}

func main() {
	os.Exit(runWithArgs(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("devenv", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.file, "file", "", "Env file to update")
	fs.StringVar(&opts.source, "source", "", "Label of the managed block")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug mode")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the result instead of writing it")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.showHelp, "help", false, "Show this help message")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			opts.showHelp = true
			return opts, nil
		}
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintf(w, `Usage: devenv [options]

Resolves development environment variables and writes them to an env file.
Variables already set in the environment are kept as they are.

Options:
  --config <path>   Path to configuration file (YAML or TOML)
  --file <path>     Env file to update (default %s)
  --source <label>  Label of the managed block (default %s)
  --dry-run         Print the result instead of writing it
  --debug           Enable debug mode
  --version         Show version information
  --help            Show this help message

Documentation: github.com/animalet/devenv
`, dotenv.DefaultFile, defaultSource)
}

func setupLogging(debug bool, out io.Writer) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    false,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return exitError
	}
	if opts.showHelp {
		printUsage(stdout)
		return exitSuccess
	}
	if opts.showVersion {
		_, _ = fmt.Fprintf(stdout, "devenv version %s\n", version)
		return exitSuccess
	}

	// stdout is reserved for --dry-run output
	setupLogging(opts.debug, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPlan(opts)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitError
	}

	resolved, err := devenv.NewResolver().Resolve(ctx, p.entries, p.source)
	if err != nil {
		log.Error().Err(err).Str("source", p.source).Msg("Failed to resolve dev env")
		return exitError
	}

	vars := make([]dotenv.Variable, 0, resolved.Len())
	for _, v := range resolved.Vars() {
		vars = append(vars, dotenv.Variable{Key: v.Key.String(), Value: v.Value})
	}
	writer := dotenv.NewWriter(dotenv.WithReadme(p.readme))

	if opts.dryRun {
		content, _, err := writer.Preview(p.file, vars, p.source)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Failed to render dev env variables for %s: %v\n", p.file, err)
			return exitError
		}
		_, _ = stdout.Write(content)
		return exitSuccess
	}

	if _, err = writer.Add(p.file, vars, p.source); err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to write dev env variables to %s: %v\n", p.file, err)
		return exitError
	}
	return exitSuccess
}

// buildPlan merges flags, the optional config file and defaults. Flags win
// over the file.
func buildPlan(opts *options) (*plan, error) {
	var cfg *config.Config
	profile := &devenv.Profile{}
	if opts.configPath != "" {
		var err error
		cfg, err = loadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		loaded, err := config.Get[devenv.Profile](cfg, "devenv")
		if err != nil {
			return nil, errors.Wrap(err, "failed to load devenv configuration")
		}
		if loaded != nil {
			profile = loaded
		}
	}

	entries, err := profile.BuildEntries(cfg, profile.Options(devenv.DefaultOptions(os.LookupEnv)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build dev env pipeline")
	}

	return &plan{
		entries: entries,
		file:    firstNonEmpty(opts.file, profile.File, dotenv.DefaultFile),
		source:  firstNonEmpty(opts.source, profile.Source, defaultSource),
		readme:  profile.Readme,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
