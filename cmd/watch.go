package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jverhoeven/radioscrobble/internal/config"
	"github.com/jverhoeven/radioscrobble/internal/scraper"
	"github.com/jverhoeven/radioscrobble/internal/store"
	"github.com/jverhoeven/radioscrobble/internal/watcher"
	"github.com/jverhoeven/radioscrobble/pkg/lastfm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	watchLogFile  string
	watchLogLevel string
	watchDataDir  string
	watchInterval int
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the stream watcher",
	Long: `Run the watcher that follows the station's playback page and scrobbles to Last.fm.

The watcher will:
- Poll the playback page once a minute (configurable) for the current label
- Detect track transitions, ignoring labels the page re-reports by mistake
- Update the Last.fm "now playing" marker while a track stays open
- Scrobble a track once when it ends, with the time it started playing
- Persist everything between polls, so restarts never double-scrobble

The watcher runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for systemd).`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Command-line flags
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Log file path (default: stderr)")
	watchCmd.Flags().StringVar(&watchLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	watchCmd.Flags().StringVar(&watchDataDir, "data-dir", "", "Data directory for state (default: ~/.local/share/radioscrobble)")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Poll interval in seconds (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate Last.fm credentials up front; a missing setting should
	// refuse to start, not fail a tick
	if cfg.LastFM.APIKey == "" || cfg.LastFM.APISecret == "" || cfg.LastFM.SessionKey == "" {
		return fmt.Errorf("Last.fm credentials not configured. Run 'radioscrobble auth' first")
	}

	if watchInterval > 0 {
		cfg.PollInterval = watchInterval
	}

	// Set up logging
	logger := setupLogger(watchLogFile, watchLogLevel)

	logger.Info().
		Str("station", cfg.Station.Name).
		Str("url", cfg.Station.URL).
		Msg("Starting radioscrobble watcher")

	// Determine data directory
	dataDir, err := resolveDataDir(watchDataDir)
	if err != nil {
		return err
	}

	logger.Info().Str("data_dir", dataDir).Msg("Using data directory")

	// Open the state store
	st, err := store.Open(filepath.Join(dataDir, "state.db"))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// Create the page scraper
	placeholder := ""
	if len(cfg.Station.Placeholders) > 0 {
		placeholder = cfg.Station.Placeholders[0]
	}
	sc, err := scraper.NewPageScraper(cfg.Station.URL, cfg.Station.LabelPattern, placeholder, nil)
	if err != nil {
		return fmt.Errorf("failed to create scraper: %w", err)
	}

	// Create the Last.fm client
	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.LastFM.APIKey,
		APISecret:  cfg.LastFM.APISecret,
		SessionKey: cfg.LastFM.SessionKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create lastfm client: %w", err)
	}

	w := watcher.New(watcher.Config{
		PollInterval: time.Duration(cfg.PollInterval) * time.Second,
		Renotify:     cfg.Renotify,
		Placeholders: cfg.Station.Placeholders,
	}, sc, client.Track(), st, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle first signal gracefully, second signal forces exit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("watcher error: %w", err)
	}

	// Keep the journal from growing without bound
	if _, err := st.CleanupJournal(context.Background(), 30*24*time.Hour); err != nil {
		logger.Warn().Err(err).Msg("Failed to cleanup journal")
	}

	logger.Info().Msg("Watcher stopped")
	return nil
}

// resolveDataDir picks and creates the data directory
func resolveDataDir(flag string) (string, error) {
	dataDir := flag
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share", "radioscrobble")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	// Create logger
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
