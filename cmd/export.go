package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/qc"
	"github.com/spectra-group/raman-qc/internal/report"
	"github.com/spectra-group/raman-qc/internal/store"
)

var (
	exportOut      string
	exportLimit    int
	exportDecision string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export logged evaluations to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		evals, err := st.ListEvaluations(ctx, store.EvalFilter{
			Decision: qc.Decision(exportDecision),
			Limit:    exportLimit,
		})
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = report.FileName(time.Now())
		}
		if err := report.WriteXLSX(out, evals); err != nil {
			return err
		}

		zap.L().Info("workbook written",
			zap.String("path", out),
			zap.Int("evaluations", len(evals)),
		)
		fmt.Printf("Wrote %d evaluations to %s\n", len(evals), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output workbook path (default timestamped)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum evaluations to export (0 = all)")
	exportCmd.Flags().StringVar(&exportDecision, "decision", "", "filter by decision (GREEN, AMBER, RED)")
	rootCmd.AddCommand(exportCmd)
}
