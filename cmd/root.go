package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/config"
)

var cfg *config.Config

// errRedSample signals a completed evaluation whose verdict is RED. The
// process still exits non-zero so line automation can gate on it, but with
// a distinct code from operational failures.
var errRedSample = errors.New("sample evaluated RED")

var rootCmd = &cobra.Command{
	Use:   "raman-qc",
	Short: "Raman spectrum quality control",
	Long:  "Evaluates Raman spectra against station recipes: per-band peak metrics, classifier scoring, and a GREEN/AMBER/RED verdict with auditable reasons.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRedSample) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
