package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"releaseguard.app/guard/core/config"
	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/queue"
)

var (
	decisionsCount  int64
	decisionsFollow bool
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Show merge decisions from the audit stream",
	Long: `Show the most recent merge decisions recorded on the audit stream
(DECISION_STREAM on REDIS_URL). With --follow, keep printing new decisions
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg, err := config.Load(config.ServiceTypeCLI)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if !cfg.Audit.Enabled() {
			return errors.New("REDIS_URL is not configured, decisions are not recorded")
		}
		loc, err := cfg.Schedule.Location()
		if err != nil {
			return err
		}

		opts, err := redis.ParseURL(cfg.Audit.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		reader := queue.NewRedisDecisionReader(client, queue.ReaderConfig{
			Stream: cfg.Audit.Stream,
			Block:  5 * time.Second,
			Count:  100,
		})

		entries, err := reader.Recent(ctx, decisionsCount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			if err := printEntry(out, e, loc); err != nil {
				return err
			}
		}

		if !decisionsFollow {
			return nil
		}

		lastID := "$"
		if len(entries) > 0 {
			lastID = entries[len(entries)-1].ID
		}
		for {
			entries, err := reader.Follow(ctx, lastID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			for _, e := range entries {
				if err := printEntry(out, e, loc); err != nil {
					return err
				}
				lastID = e.ID
			}
		}
	},
}

func init() {
	decisionsCmd.Flags().Int64VarP(&decisionsCount, "count", "n", 20, "Number of recent decisions to show")
	decisionsCmd.Flags().BoolVarP(&decisionsFollow, "follow", "f", false, "Wait for new decisions")

	rootCmd.AddCommand(decisionsCmd)
}

func printEntry(out io.Writer, e queue.DecisionEntry, loc *time.Location) error {
	if jsonOutput {
		return json.NewEncoder(out).Encode(dto.ToDecisionResponse(e.Decision))
	}

	d := e.Decision
	verdict := "ALLOWED"
	if !d.Allowed {
		verdict = "BLOCKED"
	}
	subject := d.IssueKey
	if d.PullRequestURL != "" {
		if subject != "" {
			subject += " "
		}
		subject += d.PullRequestURL
	}
	_, err := fmt.Fprintf(out, "%s  %-7s  %-19s  %s\n",
		d.EvaluatedAt.In(loc).Format(time.RFC3339), verdict, d.Rule, subject)
	return err
}
