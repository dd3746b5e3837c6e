package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/cron"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect the purge job registration",
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored purge job registration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := mustSetup()

		storage := cron.NewStorage(cfg.Data.Dir, log)
		job, ok, err := storage.Get(cfg.Scheduler.JobName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to read %s: %v\n", storage.Path(), err)
			os.Exit(1)
		}
		printSchedule(cmd.OutOrStdout(), cfg.Scheduler.JobName, cfg.Scheduler.Interval, job, ok)
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleShowCmd)
}

func printSchedule(w io.Writer, name string, interval time.Duration, job cron.StorageJob, found bool) {
	if !found {
		fmt.Fprintf(w, constants.MsgScheduleMissing, name)
		return
	}

	updated := "unknown"
	if !job.UpdatedAt.IsZero() {
		updated = job.UpdatedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(w, constants.MsgScheduleRow, job.ID, job.Schedule, updated)
	if want := cron.EveryLabel(interval); job.Schedule != want {
		fmt.Fprintf(w, constants.MsgScheduleDrift, want)
	}
}
