package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"imemirror/internal/config"
	"imemirror/internal/crawler"
	"imemirror/internal/crawler/parsers"
	"imemirror/internal/formatter"
	"imemirror/internal/logger"
	"imemirror/internal/mirror"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Options injects process dependencies; zero values use the real ones.
type Options struct {
	Lookup     config.LookupFunc
	HTTPClient *http.Client
	Now        func() time.Time
	Stderr     io.Writer
}

// loggedError marks an error already reported through the run logger.
type loggedError struct {
	err error
}

func (e loggedError) Error() string { return e.err.Error() }

func (e loggedError) Unwrap() error { return e.err }

type flags struct {
	configPath  string
	root        string
	date        string
	timezone    string
	relay       string
	logLevel    string
	logFormat   string
	concurrency int
	quiet       bool
}

// NewRootCmd creates the root command.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	f := &flags{}

	cmd := &cobra.Command{
		Use:   "imemirror",
		Short: "Mirror today's IME judicial-notice bulletins as text and JSON",
		Long: `Fetch the daily IME bulletins of every configured civil court and shift,
store the raw text under data/<date>/ and the parsed notices under json/<date>/,
and write json/<date>/all.json with every notice of the run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f, opts)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to YAML configuration file")
	cmd.Flags().StringVar(&f.root, "root", "", "Run root directory for data/ and json/ (overrides config)")
	cmd.Flags().StringVar(&f.date, "date", "", "Bulletin date as YYYY-MM-DD (default: today in the configured time zone)")
	cmd.Flags().StringVar(&f.timezone, "tz", "", "IANA time zone (overrides TZ and config)")
	cmd.Flags().StringVar(&f.relay, "relay", "", "Relay base URL used as last resort (overrides IME_RELAY_BASE and config)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Units fetched in parallel (overrides config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: text or json")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "Do not print the summary table")

	return cmd
}

func run(cmd *cobra.Command, f *flags, opts Options) error {
	cfg, err := config.Load(f.configPath, opts.Lookup)
	if err != nil {
		return err
	}

	applyFlags(cmd, f, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	date := mirror.Today(loc, opts.Now())
	if f.date != "" {
		if date, err = mirror.ParseDate(f.date); err != nil {
			return err
		}
	}

	runID := uuid.NewString()
	log := logger.NewLoggerWithWriter(opts.Stderr, cfg.Logging.Level, cfg.Logging.Format).With("run_id", runID)
	log.Debug("configuration resolved", "config", cfg.String())

	fetcher := crawler.NewFetcherFromConfig(cfg, opts.HTTPClient, log)

	runner := mirror.NewRunner(mirror.Options{
		Fetcher:     fetcher,
		Parser:      parsers.NewBulletinParser(),
		Store:       mirror.NewStore(cfg.Output.Root),
		Logger:      log,
		RunID:       runID,
		BaseURL:     config.BaseURL,
		Courts:      cfg.Mirror.Courts,
		Date:        date,
		Concurrency: cfg.Crawler.Concurrency,
	})

	report, err := runner.Run(cmd.Context())
	if err != nil {
		log.Error("run failed", "error", err)
		return loggedError{err: err}
	}

	log.Info("fetch attempts", "stats", fetcher.Attempts().Stats().String())

	if f.quiet {
		return nil
	}

	return formatter.WriteSummary(cmd.OutOrStdout(), report)
}

func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("root") {
		cfg.Output.Root = f.root
	}

	if changed("tz") {
		cfg.Mirror.Timezone = f.timezone
	}

	if changed("relay") {
		cfg.Mirror.RelayBase = f.relay
	}

	if changed("concurrency") {
		cfg.Crawler.Concurrency = f.concurrency
	}

	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}

	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(Options{}).ExecuteContext(ctx); err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		return ExitError
	}

	return ExitSuccess
}
