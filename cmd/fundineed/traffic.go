package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/fundineed/internal/loadgen"
)

// Default worker multiplier for runtime.NumCPU().
const defaultWorkerMultiplier = 2

func trafficCmd(c *cli) *cobra.Command {
	var cfg loadgen.Config
	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "Drive synthetic traffic against a running server",
		Long: `Submit eligibility checks, EMI calculations and tracking events
concurrently, including resent events, then confirm through the admin API
that the stored totals match what the server acknowledged.

Verification uses the configured admin credentials unless overridden.`,
		Example: `  fundineed traffic --url http://localhost:8080 --events 50000 --workers 16`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.AdminUsername == "" {
				cfg.AdminUsername = c.cfg.AdminUsername
			}
			if cfg.AdminPassword == "" {
				cfg.AdminPassword = c.cfg.AdminPassword
			}
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"checks %d, calculations %d, events accepted %d, duplicates %d, rejected %d, failed %d, verified %t in %s\n",
				stats.ChecksOK, stats.CalculationsOK, stats.EventsAccepted, stats.EventsDuplicate,
				stats.EventsRejected, stats.Failed, stats.Verified, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the server")
	f.IntVar(&cfg.Checks, "checks", loadgen.DefaultChecks, "eligibility checks to submit")
	f.IntVar(&cfg.Calculations, "calculations", loadgen.DefaultCalculations, "EMI calculations to submit")
	f.IntVar(&cfg.Events, "events", loadgen.DefaultEvents, "distinct tracking events to submit")
	f.Float64Var(&cfg.DuplicateRatio, "duplicates", 0.1, "share of events resent with the same event id")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkerMultiplier, "concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.SettleTimeout, "settle", loadgen.DefaultSettleTimeout, "how long to wait for stored totals to match")
	f.StringVar(&cfg.AdminUsername, "admin-user", "", "admin username for verification (default: config)")
	f.StringVar(&cfg.AdminPassword, "admin-password", "", "admin password for verification (default: config)")
	f.Uint64Var(&cfg.Seed, "seed", 0, "generator seed; 0 picks a random one")
	return cmd
}
