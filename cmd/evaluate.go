package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/spectrum"
)

var (
	evaluateRecipe  string
	evaluateBackend string
	evaluateJSON    bool
	evaluateSave    bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <spectrum.csv>",
	Short: "Evaluate one spectrum against a recipe",
	Long:  "Reads a two-column wavenumber,intensity CSV, evaluates every recipe band, and prints the verdict. Exits 2 when the verdict is RED.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		source := args[0]

		rcp, err := resolveRecipe(evaluateRecipe)
		if err != nil {
			return err
		}

		s, err := spectrum.ReadCSVFile(source)
		if err != nil {
			return err
		}

		if evaluateBackend != "" {
			cfg.Classifier.Backend = evaluateBackend
		}
		clf, err := initClassifier()
		if err != nil {
			return err
		}

		result, err := qc.EvaluateSample(ctx, rcp, s, clf)
		if err != nil {
			return err
		}

		if evaluateSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			ev, err := st.SaveEvaluation(ctx, source, result)
			if err != nil {
				return err
			}
			zap.L().Info("evaluation saved", zap.String("id", ev.ID))
		}

		if evaluateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return eris.Wrap(err, "encode result")
			}
		} else {
			printSampleResult(result)
		}

		if result.Decision == qc.DecisionRed {
			return errRedSample
		}
		return nil
	},
}

func printSampleResult(result *qc.SampleResult) {
	fmt.Printf("Recipe:   %s v%s\n", result.Recipe.Name, result.Recipe.Version)
	fmt.Printf("Decision: %s\n", result.Decision)
	for _, r := range result.Reasons {
		fmt.Printf("  - %s\n", r)
	}
	fmt.Println()

	rows := make([][]string, 0, len(result.Bands))
	for _, br := range result.Bands {
		rows = append(rows, []string{
			br.Band.Name,
			string(br.Band.Role),
			string(br.Label),
			fmt.Sprintf("%.2f", br.Metrics.CenterObs),
			fmt.Sprintf("%.2f", br.Metrics.DeltaNu),
			fmt.Sprintf("%.1f", br.Metrics.SNR),
			fmt.Sprintf("%.4f", br.Metrics.RMSE),
			fmt.Sprintf("%.2f", br.Metrics.Confidence),
			fmt.Sprintf("%.2f", br.Metrics.Kappa),
		})
	}
	fmt.Println(renderTable(
		[]string{"band", "role", "label", "center_obs", "delta_nu", "snr", "rmse", "conf", "kappa"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateRecipe, "recipe", "r", "", "recipe name (required)")
	evaluateCmd.Flags().StringVar(&evaluateBackend, "backend", "", "override the configured classifier backend")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "print the full result as JSON")
	evaluateCmd.Flags().BoolVar(&evaluateSave, "save", false, "persist the evaluation to the store")
	_ = evaluateCmd.MarkFlagRequired("recipe")
	rootCmd.AddCommand(evaluateCmd)
}
