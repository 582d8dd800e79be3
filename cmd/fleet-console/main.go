// Command fleet-console manages fleets and their drivers through the fleet
// REST API, either one command at a time or through an interactive console.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"fleet-console/internal/api"
	"fleet-console/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	// Global flags
	cfgPath  string
	apiURL   string
	logLevel string

	// Set up by PersistentPreRunE
	cfg     *config.Config
	client  *api.Client
	logger  *slog.Logger
	logFile *os.File
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fleet-console",
	Short: "Manage fleets and drivers through the fleet API",
	Long: `fleet-console lists and deletes fleets, shows a fleet's drivers,
dismisses or invites drivers and answers a driver's invitations. Run "fleet-console tui" for the interactive
console.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		if apiURL != "" {
			cfg.API.BaseURL = apiURL
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The console owns the terminal, so its logs always go to a file
		if cmd.Name() == "tui" && cfg.Logging.File == "" {
			cfg.Logging.File = filepath.Join(os.TempDir(), "fleet-console.log")
		}

		if err := setupLogging(cfg); err != nil {
			return err
		}

		client = newClient(cfg)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Fleet API base URL (or set FLEET_API_URL env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(fleetsCmd)
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(invitesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) error {
	var w io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		w = f
	}

	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return nil
}

func newClient(cfg *config.Config) *api.Client {
	opts := []api.Option{
		api.WithTimeout(cfg.GetTimeout()),
		api.WithUserAgent("fleet-console/" + version),
	}
	if cfg.API.Username != "" {
		opts = append(opts, api.WithBasicAuth(cfg.API.Username, cfg.API.Password))
	}
	return api.NewClient(cfg.API.BaseURL, opts...)
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

func parseIDs(kind string, args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
