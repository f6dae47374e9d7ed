package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/fundineed/internal/domain/emi"
	"github.com/okian/fundineed/pkg/money"
)

func emiCmd() *cobra.Command {
	var (
		t        emi.Terms
		schedule bool
	)
	cmd := &cobra.Command{
		Use:     "emi",
		Short:   "Calculate a loan EMI",
		Example: `  fundineed emi --principal 1000000 --rate 10 --tenure 120 --schedule`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schedule && t.TenureMonths > emi.MaxScheduleMonths {
				return fmt.Errorf("schedule is limited to %d months", emi.MaxScheduleMonths)
			}
			res, err := t.Calculate()
			if err != nil {
				return fmt.Errorf("calculate emi: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monthly EMI:     %s\n", money.INR(res.MonthlyPayment))
			fmt.Fprintf(out, "Total interest:  %s\n", money.INR(res.TotalInterest))
			fmt.Fprintf(out, "Total payment:   %s\n", money.INR(res.TotalPayment))
			if t.Classify() == emi.KindDegenerate {
				fmt.Fprintln(out, "Terms are degenerate; principal and tenure must be positive and the rate non-negative.")
				return nil
			}
			if !schedule {
				return nil
			}

			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "Month\tPayment\tPrincipal\tInterest\tBalance\t")
			for _, in := range emi.Schedule(t) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", in.Month,
					money.Fixed(in.Payment), money.Fixed(in.Principal), money.Fixed(in.Interest), money.Fixed(in.Balance))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Float64Var(&t.Principal, "principal", 0, "loan amount in rupees")
	cmd.Flags().Float64Var(&t.AnnualRatePercent, "rate", 0, "annual interest rate in percent")
	cmd.Flags().IntVar(&t.TenureMonths, "tenure", 0, "tenure in months")
	cmd.Flags().BoolVar(&schedule, "schedule", false, "print the month by month schedule")
	return cmd
}
