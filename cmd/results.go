package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/store"
)

var (
	resultsLimit    int
	resultsDecision string
	resultsRecipe   string
	resultsSince    string
)

var resultsCmd = &cobra.Command{
	Use:   "results [evaluation-id]",
	Short: "Show logged evaluations",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if len(args) == 1 {
			ev, err := st.GetEvaluation(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(ev), "encode evaluation")
		}

		filter := store.EvalFilter{
			Recipe:   resultsRecipe,
			Decision: qc.Decision(resultsDecision),
			Limit:    resultsLimit,
		}
		if resultsSince != "" {
			since, err := time.Parse(time.RFC3339, resultsSince)
			if err != nil {
				return eris.Wrapf(err, "parse --since %q", resultsSince)
			}
			filter.Since = since
		}

		evals, err := st.ListEvaluations(ctx, filter)
		if err != nil {
			return err
		}
		if len(evals) == 0 {
			fmt.Fprintln(os.Stderr, "No evaluations found.")
			return nil
		}

		rows := make([][]string, 0, len(evals))
		for _, ev := range evals {
			rows = append(rows, []string{
				ev.ID,
				ev.CreatedAt.Format(time.RFC3339),
				ev.RecipeName,
				ev.RecipeVersion,
				string(ev.Decision),
				strings.Join(ev.Reasons, "; "),
			})
		}
		fmt.Println(renderTable(
			[]string{"id", "created_at", "recipe", "version", "decision", "reasons"},
			rows,
			nil,
		))
		return nil
	},
}

func init() {
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 20, "maximum evaluations to list")
	resultsCmd.Flags().StringVar(&resultsDecision, "decision", "", "filter by decision (GREEN, AMBER, RED)")
	resultsCmd.Flags().StringVar(&resultsRecipe, "recipe", "", "filter by recipe name")
	resultsCmd.Flags().StringVar(&resultsSince, "since", "", "only evaluations at or after this RFC3339 time")
	rootCmd.AddCommand(resultsCmd)
}
