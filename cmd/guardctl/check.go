package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"releaseguard.app/guard/internal/domain"
	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/queue"
	"releaseguard.app/guard/internal/service"
)

// errBlocked makes guardctl exit with status 2 without printing an error.
var errBlocked = errors.New("merge blocked")

var (
	checkIssue string
	checkPR    string
	checkAt    string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate whether a change may merge",
	Long: `Evaluate whether a change may merge, the same way the HTTP API does.

Exits with status 2 when the merge is blocked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		integrations, err := service.NewIntegrations(a.cfg)
		if err != nil {
			return err
		}

		var at time.Time
		if checkAt != "" {
			at, err = service.ParseNaturalTimestamp(checkAt, a.loc, time.Now())
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
		}

		merge := service.NewMergeService(integrations.Issues, integrations.Changes, a.schedule(), queue.NewNoopProducer(), service.MergeConfig{
			FetchTimeout:       a.cfg.Fetch.Timeout,
			RequireLinkedIssue: a.cfg.RequireLinkedIssue,
		})

		decision, err := merge.CheckMergeBlockStatus(ctx, service.MergeCheckRequest{
			IssueKey:       checkIssue,
			PullRequestURL: checkPR,
			At:             at,
		})
		if err != nil {
			return err
		}

		if err := printDecision(cmd.OutOrStdout(), decision, a.loc); err != nil {
			return err
		}
		if !decision.Allowed {
			return errBlocked
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkIssue, "issue-key", "i", "", "Issue key, prefix with ! to mark urgent")
	checkCmd.Flags().StringVarP(&checkPR, "pull-request", "p", "", "Pull request or merge request URL")
	checkCmd.Flags().StringVar(&checkAt, "at", "", "Instant to evaluate (default now)")
	checkCmd.MarkFlagsOneRequired("issue-key", "pull-request")
}

func printDecision(out io.Writer, d domain.Decision, loc *time.Location) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.ToDecisionResponse(d))
	}

	verdict := "ALLOWED"
	if !d.Allowed {
		verdict = "BLOCKED"
	}
	fmt.Fprintf(out, "%s (%s)\n", verdict, d.Rule)
	if d.IssueKey != "" {
		fmt.Fprintf(out, "  issue:        %s\n", d.IssueKey)
	}
	if d.BlockingIssueKey != "" {
		fmt.Fprintf(out, "  blocked by:   %s\n", d.BlockingIssueKey)
	}
	if d.PullRequestURL != "" {
		fmt.Fprintf(out, "  change:       %s\n", d.PullRequestURL)
	}
	if d.TargetBranch != "" {
		fmt.Fprintf(out, "  branch:       %s\n", d.TargetBranch)
	}
	if d.UrgencyReason != domain.UrgencyReasonNone && d.UrgencyReason != "" {
		fmt.Fprintf(out, "  urgency:      %s\n", d.UrgencyReason)
	}
	if d.WindowID != 0 {
		fmt.Fprintf(out, "  window:       %d\n", d.WindowID)
	}
	fmt.Fprintf(out, "  evaluated at: %s\n", d.EvaluatedAt.In(loc).Format(time.RFC3339))
	return nil
}
