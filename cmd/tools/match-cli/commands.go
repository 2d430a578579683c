package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cuidly-matching/internal/common/config"
	"cuidly-matching/internal/matching"
	"cuidly-matching/internal/matching/ranking"
	"cuidly-matching/internal/matching/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score every caregiver in the fixture and print the breakdowns",
	RunE:  runScore,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Print the ranked candidate list for the fixture's job",
	RunE:  runRank,
}

var (
	rankLimit        int
	rankEligibleOnly bool
	rankWithinRadius bool
	rankConcurrency  int
)

func init() {
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "Maximum number of results (0 keeps all)")
	rankCmd.Flags().BoolVar(&rankEligibleOnly, "eligible-only", false, "Drop caregivers that fail a mandatory requirement")
	rankCmd.Flags().BoolVar(&rankWithinRadius, "within-radius", false, "Drop caregivers beyond their own travel ceiling")
	rankCmd.Flags().IntVar(&rankConcurrency, "concurrency", 4, "Caregivers scored in parallel")

	rootCmd.AddCommand(scoreCmd, rankCmd)
}

func prepare() (*matchInput, scoring.Config, error) {
	sc, err := config.LoadScoring(configFile)
	if err != nil {
		return nil, sc, err
	}
	fixture, err := loadFixture(inputFile)
	if err != nil {
		return nil, sc, err
	}
	in, err := fixture.convert(sc.Rates)
	if err != nil {
		return nil, sc, fmt.Errorf("invalid fixture: %w", err)
	}
	return in, sc, nil
}

func runScore(cmd *cobra.Command, _ []string) error {
	in, sc, err := prepare()
	if err != nil {
		return err
	}

	scorer := scoring.NewScorer(sc)
	results := make([]matching.MatchResult, len(in.caregivers))
	for i, c := range in.caregivers {
		results[i] = scorer.Score(c, in.job, in.family, in.children, in.now).Rounded(1)
	}
	return render(cmd.OutOrStdout(), results, len(in.skipped), true)
}

func runRank(cmd *cobra.Command, _ []string) error {
	in, sc, err := prepare()
	if err != nil {
		return err
	}

	caregivers := in.caregivers
	if rankWithinRadius {
		caregivers = ranking.WithinTravelRadius(caregivers, in.family)
	}

	ranker := ranking.NewRanker(
		ranking.WithScorer(scoring.NewScorer(sc)),
		ranking.WithConcurrency(rankConcurrency),
	)
	results, err := ranker.FindBestMatches(cmd.Context(), caregivers, in.job, in.family, in.children, in.now)
	if err != nil {
		return err
	}
	if rankEligibleOnly {
		results = ranking.EligibleOnly(results)
	}
	results = ranking.Limit(results, rankLimit)
	for i := range results {
		results[i] = results[i].Rounded(1)
	}
	return render(cmd.OutOrStdout(), results, len(in.skipped), false)
}

func render(w io.Writer, results []matching.MatchResult, skipped int, breakdown bool) error {
	switch outputFmt {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", outputFmt)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCAREGIVER\tSCORE\tFIT\tTRUST\tBONUS\tELIGIBLE\tDISTANCE_KM\tREASONS")
	for i, r := range results {
		distance := "-"
		if r.DistanceKm != nil {
			distance = fmt.Sprintf("%.1f", *r.DistanceKm)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%t\t%s\t%s\n",
			i+1, r.CaregiverID, r.Score, r.FitScore, r.TrustScore, r.BonusScore,
			r.IsEligible, distance, strings.Join(r.EliminationReasons, "; "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if breakdown {
		for _, r := range results {
			b := r.Breakdown
			fmt.Fprintf(w, "\n%s\n", r.CaregiverID)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, row := range []struct {
				name string
				c    matching.ScoreComponent
			}{
				{"ageRange", b.AgeRange}, {"caregiverType", b.CaregiverType}, {"activities", b.Activities},
				{"contractRegime", b.ContractRegime}, {"availability", b.Availability}, {"childrenCount", b.ChildrenCount},
				{"trustSeal", b.TrustSeal}, {"reviews", b.Reviews}, {"distanceBonus", b.DistanceBonus}, {"budgetBonus", b.BudgetBonus},
			} {
				fmt.Fprintf(tw, "  %s\t%.1f/%.1f\t%s\n", row.name, row.c.Score, row.c.MaxScore, row.c.Details)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}

	if skipped > 0 {
		fmt.Fprintf(w, "\n%d caregiver record(s) skipped: missing id\n", skipped)
	}
	return nil
}
