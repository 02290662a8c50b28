package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"releaseguard.app/guard/common/id"
	"releaseguard.app/guard/internal/http/dto"
	"releaseguard.app/guard/internal/model"
	"releaseguard.app/guard/internal/service"
)

var windowsCmd = &cobra.Command{
	Use:     "windows",
	Aliases: []string{"window", "w"},
	Short:   "Manage branch blackout windows",
}

var (
	listPage    int
	listPerPage int

	activeBranch string
	activeAt     string

	addBranch string
	addStart  string
	addEnd    string
	addReason string
	addBy     string
)

var windowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List block windows, most recent start first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		windows, err := a.schedule().List(ctx, listPage, listPerPage)
		if err != nil {
			return err
		}
		return printWindows(cmd.OutOrStdout(), windows, a.loc)
	},
}

var windowsActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List windows blocking a branch at an instant (default now)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		at := time.Now()
		if activeAt != "" {
			at, err = service.ParseNaturalTimestamp(activeAt, a.loc, at)
			if err != nil {
				return err
			}
		}

		windows, err := a.schedule().ListActive(ctx, activeBranch, at)
		if err != nil {
			return err
		}
		return printWindows(cmd.OutOrStdout(), windows, a.loc)
	},
}

var windowsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Declare a blackout window",
	Long: `Declare a blackout window on a branch.

--start and --end accept RFC3339, "2006-01-02 15:04:05" in BLACKOUT_TIMEZONE,
or English phrases such as "tomorrow 18:00" or "in 2 hours".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		now := time.Now()
		startsAt, err := service.ParseNaturalTimestamp(addStart, a.loc, now)
		if err != nil {
			return fmt.Errorf("--start: %w", err)
		}
		endsAt, err := service.ParseNaturalTimestamp(addEnd, a.loc, now)
		if err != nil {
			return fmt.Errorf("--end: %w", err)
		}

		w, err := a.schedule().Create(ctx, service.CreateBlockWindowParams{
			Branch:    addBranch,
			StartsAt:  startsAt,
			EndsAt:    endsAt,
			Reason:    addReason,
			CreatedBy: addBy,
		})
		if err != nil {
			return err
		}
		return printWindows(cmd.OutOrStdout(), []model.BlockWindow{*w}, a.loc)
	},
}

var windowsRmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete block windows by id",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		schedule := a.schedule()
		for _, arg := range args {
			windowID, err := id.Parse(arg)
			if err != nil {
				return err
			}
			w, err := schedule.Delete(ctx, windowID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d (%s)\n", w.ID, w.Branch)
		}
		return nil
	},
}

var windowsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create every window listed in a YAML file",
	Long: `Create every window listed in a YAML file, e.g.

windows:
  - branch: main
    starts_at: "2026-12-20 00:00:00"
    ends_at: "2027-01-04 08:00:00"
    reason: year-end freeze
    created_by: release-team

Windows are created in a single transaction: all of them or none.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		params, err := parseWindowFile(f, a.loc, time.Now())
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		created, err := a.schedule().Import(ctx, params)
		if err != nil {
			return err
		}
		return printWindows(cmd.OutOrStdout(), created, a.loc)
	},
}

func init() {
	windowsListCmd.Flags().IntVar(&listPage, "page", 0, "Page number, starting at 0")
	windowsListCmd.Flags().IntVar(&listPerPage, "per-page", service.DefaultWindowsPerPage, "Windows per page")

	windowsActiveCmd.Flags().StringVarP(&activeBranch, "branch", "b", "", "Target branch")
	windowsActiveCmd.Flags().StringVar(&activeAt, "at", "", "Instant to evaluate (default now)")
	_ = windowsActiveCmd.MarkFlagRequired("branch")

	windowsAddCmd.Flags().StringVarP(&addBranch, "branch", "b", "", "Branch to freeze")
	windowsAddCmd.Flags().StringVar(&addStart, "start", "", "Window start")
	windowsAddCmd.Flags().StringVar(&addEnd, "end", "", "Window end (inclusive)")
	windowsAddCmd.Flags().StringVarP(&addReason, "reason", "r", "", "Why merges are frozen")
	windowsAddCmd.Flags().StringVar(&addBy, "created-by", os.Getenv("USER"), "Who declared the window")
	_ = windowsAddCmd.MarkFlagRequired("branch")
	_ = windowsAddCmd.MarkFlagRequired("start")
	_ = windowsAddCmd.MarkFlagRequired("end")

	windowsCmd.AddCommand(windowsListCmd)
	windowsCmd.AddCommand(windowsActiveCmd)
	windowsCmd.AddCommand(windowsAddCmd)
	windowsCmd.AddCommand(windowsRmCmd)
	windowsCmd.AddCommand(windowsImportCmd)
}

func printWindows(out io.Writer, windows []model.BlockWindow, loc *time.Location) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.ToBlockWindowResponses(windows, loc))
	}

	if len(windows) == 0 {
		fmt.Fprintln(out, "no block windows")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBRANCH\tSTARTS\tENDS\tREASON\tBY")
	for _, w := range windows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.FormatInt(w.ID, 10),
			w.Branch,
			w.StartsAt.In(loc).Format(service.LocalTimestampLayout),
			w.EndsAt.In(loc).Format(service.LocalTimestampLayout),
			w.Reason,
			w.CreatedBy,
		)
	}
	return tw.Flush()
}
