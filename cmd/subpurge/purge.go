package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/subpurge/internal/app"
	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/purge"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Run or inspect purge cycles",
}

var purgeOnceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single purge cycle now",
	Run:   runPurgeOnce,
}

var purgePreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "List eligible subscribers and days until their purge",
	Run:   runPurgePreview,
}

func init() {
	purgeCmd.AddCommand(purgeOnceCmd)
	purgeCmd.AddCommand(purgePreviewCmd)
}

// buildApp wires the components without starting the scheduler.
func buildApp(ctx context.Context) *app.App {
	cfg, log := mustSetup()
	a := app.New(cfg, log)
	if err := a.Build(ctx); err != nil {
		log.Error("Failed to initialize", err)
		_ = a.Shutdown()
		os.Exit(1)
	}
	return a
}

func runPurgeOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := buildApp(ctx)
	res := a.Job().Run(ctx)
	_ = a.Shutdown()

	if !printCycleResult(cmd.OutOrStdout(), res) {
		os.Exit(1)
	}
}

// printCycleResult reports res and tells whether the cycle ended cleanly.
func printCycleResult(w io.Writer, res purge.CycleResult) bool {
	switch res.Outcome {
	case purge.OutcomeEmpty:
		fmt.Fprintln(w, constants.MsgPurgeNothing)
	case purge.OutcomeSkipped:
		fmt.Fprintln(w, constants.MsgPurgeSkipped)
	case purge.OutcomeDeleted:
		fmt.Fprintf(w, constants.MsgPurgeDeleted, res.Candidate.ID, res.Candidate.Login)
	case purge.OutcomeDeleteFailed:
		fmt.Fprintf(w, constants.MsgPurgeDeleteFailed, res.Candidate.ID)
		return false
	default:
		fmt.Fprintf(w, constants.MsgPurgeSelectFailed, res.Err)
		return false
	}
	return true
}

func runPurgePreview(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	a := buildApp(ctx)
	defer a.Shutdown()

	rows, err := a.Executor().Preview(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, constants.MsgPurgeSelectFailed, err)
		return
	}
	printPreview(cmd.OutOrStdout(), a.Settings().Load(ctx).DaysInactive, rows)
}

func printPreview(w io.Writer, days int, rows []purge.Upcoming) {
	if len(rows) == 0 {
		fmt.Fprintln(w, constants.MsgPreviewEmpty)
		return
	}

	fmt.Fprintf(w, constants.MsgPreviewHeader, days)
	for _, r := range rows {
		left := fmt.Sprintf(constants.MsgPreviewDays, r.DaysUntil)
		if r.Urgent {
			left = fmt.Sprintf(constants.MsgPreviewUrgent, r.DaysUntil)
		}
		fmt.Fprintf(w, constants.MsgPreviewRow, r.Account.ID, r.Account.Login, r.Account.Email, r.RegisteredDisplay, left)
	}
}
