package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/karou9/leetsync/internal/archive"
	"github.com/karou9/leetsync/internal/config"
	"github.com/karou9/leetsync/internal/leetcode"
	"github.com/karou9/leetsync/internal/logging"
	"github.com/karou9/leetsync/internal/metrics"
	"github.com/karou9/leetsync/internal/state"
	"github.com/karou9/leetsync/internal/syncer"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	envFile    string
	reportPath string
	maxPages   int
	progress   bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leetsync",
		Short: "LeetSync - incremental LeetCode submission archiver",
		Long: `LeetSync pulls your accepted LeetCode submissions, reads the
classification header each solution carries in its first comment, and
files the code into a category directory tree. Runs are incremental:
only submissions newer than the last synced one are fetched.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		Long: `Run one synchronization pass:
1. List recent submissions, newest first, until the last synced timestamp
2. Fetch source code for new accepted submissions
3. Classify each by its comment header and write it into the archive
4. Checkpoint progress so interrupted runs resume cleanly`,
		RunE: runSync,
	}

	syncCmd.Flags().StringVar(&configPath, "config", "leetsync.toml", "Path to configuration file")
	syncCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	syncCmd.Flags().StringVar(&reportPath, "report", "", "Write the run report as JSON to this path")
	syncCmd.Flags().IntVar(&maxPages, "max-pages", 0, "Override the page budget for this run")
	syncCmd.Flags().BoolVar(&progress, "progress", false, "Show a progress spinner")
	syncCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Manage sync state",
		Long:  "Inspect the persisted watermark and processed-submission window",
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Display the persisted sync state",
		RunE:  inspectState,
	}
	inspectCmd.Flags().StringVar(&configPath, "config", "leetsync.toml", "Path to configuration file")

	stateCmd.AddCommand(inspectCmd)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(stateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if maxPages > 0 {
		cfg.Sync.MaxPages = maxPages
	}
	if progress {
		cfg.Sync.Progress = true
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger, logFile, err := logging.Setup(logLevel, cfg.Archive.LogPath)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	logger.Info("LeetSync starting",
		"version", Version,
		"config", configPath,
		"archive_root", cfg.Archive.Root)

	collector := metrics.NewCollector(logger)
	client := leetcode.NewClient(cfg.API, secrets, collector, logger)
	writer := archive.NewWriter(cfg.Archive.Root, cfg.Archive.FallbackCategory, logger)
	store := state.NewStore(cfg.StatePath(), cfg.Sync.SeenIDWindow, logger)

	orch := syncer.New(cfg, client, writer, store, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Println(report.Summary())
	if report.RateLimited {
		fmt.Println("Stopped early on rate limiting; the next run picks up where this one left off.")
	}

	if reportPath != "" {
		if err := writeReport(reportPath, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Wrote run report", "path", reportPath)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("sync interrupted (progress was checkpointed)")
	}
	return nil
}

// inspectState prints the persisted watermark and processed-ID window.
func inspectState(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := state.NewStore(cfg.StatePath(), cfg.Sync.SeenIDWindow, logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load sync state: %w", err)
	}

	st := store.State()
	fmt.Printf("State file:     %s\n", cfg.StatePath())
	if !store.Bootstrapped() {
		fmt.Println("No sync state yet; the next sync run will bootstrap.")
		return nil
	}
	fmt.Printf("Watermark:      %d\n", st.Watermark)
	fmt.Printf("Processed IDs:  %d (window %d)\n", len(st.ProcessedIDs), cfg.Sync.SeenIDWindow)
	fmt.Printf("Updated at:     %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func writeReport(path string, report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadEnvFile loads KEY=VALUE pairs from a file into the environment.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
