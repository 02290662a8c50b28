// Command guardctl is the operator CLI for the merge gate: it manages blackout
// windows directly against the database and runs one-off merge checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/common/logger"
	"releaseguard.app/guard/core/config"
	"releaseguard.app/guard/core/db"
	"releaseguard.app/guard/internal/service"
	"releaseguard.app/guard/internal/store"
)

var (
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "guardctl",
	Short: "Operate the release merge gate",
	Long: `guardctl manages branch blackout windows and runs merge checks.

Examples:
  guardctl windows list
  guardctl windows add --branch main --start "friday 18:00" --end "monday 06:00" --reason "weekend freeze"
  guardctl windows import freeze.yaml
  guardctl windows rm 1765432109876543210
  guardctl check --issue-key PROJ-42 --pull-request https://github.com/acme/shop/pull/7`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errBlocked) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// app holds what every command needs once config is loaded.
type app struct {
	cfg config.Config
	loc *time.Location
	db  *db.DB
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logger.NewTraceHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))))

	if err := id.Init(3); err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &app{cfg: cfg, loc: loc, db: database}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func (a *app) schedule() service.BlockScheduleService {
	return service.NewBlockScheduleService(store.NewStores(a.db.Queries()).BlockWindows(), service.NewTxRunner(a.db))
}
