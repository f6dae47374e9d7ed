package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/fundineed/internal/domain/eligibility"
)

func scoreCmd() *cobra.Command {
	var (
		p       eligibility.Profile
		bracket string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an applicant profile",
		Long: `Run the eligibility scorer on a profile and print the score, tier,
factor breakdown and recommendations.`,
		Example: `  fundineed score --age 22 --bracket 3l_5l --course engineering --academic excellent
  fundineed score --age 30 --income 120000 --course arts --academic average --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("income") && bracket != "" {
				p.AnnualFamilyIncome = eligibility.IncomeFromBracket(bracket)
			}
			res := eligibility.Score(p)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "Score: %d/%d (%s)\n%s\n\n", res.Score, eligibility.MaxScore, res.Tier, res.Message)
			for _, f := range res.Factors {
				fmt.Fprintf(out, "  %-16s %2d/%-2d  %-7s  %s\n", f.Name, f.Points, f.MaxPoints, f.Status, f.Explanation)
			}
			if len(res.Recommendations) > 0 {
				fmt.Fprintln(out, "\nRecommendations:")
				for _, r := range res.Recommendations {
					fmt.Fprintf(out, "  - %s\n", r)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&p.Age, "age", 0, "applicant age in years")
	cmd.Flags().Float64Var(&p.AnnualFamilyIncome, "income", 0, "annual family income in rupees")
	cmd.Flags().StringVar(&bracket, "bracket", "", "income bracket code, used when --income is not set")
	cmd.Flags().StringVar(&p.CourseType, "course", "", "course type, e.g. engineering, mba, medicine")
	cmd.Flags().StringVar(&p.AcademicRecord, "academic", "", "academic record: excellent, good or average")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
