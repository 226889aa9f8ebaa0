package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spectra-group/raman-qc/internal/recipe"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect station recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recipes in the configured recipe directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := cfg.Recipes.Dir

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		type row struct {
			name  string
			cells []string
		}
		var rows []row
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") || e.Name() == cfg.Recipes.Index {
				continue
			}
			r, err := recipe.Load(filepath.Join(dir, e.Name()))
			if err != nil {
				zap.L().Warn("skipping unreadable recipe",
					zap.String("file", e.Name()),
					zap.Error(err),
				)
				continue
			}
			rows = append(rows, row{name: r.Name, cells: []string{
				r.Name,
				r.Version,
				r.Station,
				fmt.Sprintf("%d", len(r.Bands)),
				fmt.Sprintf("%g", r.Tau),
				fmt.Sprintf("%g", r.KappaMin),
				fmt.Sprintf("%g", r.SNRMin),
				fmt.Sprintf("%g", r.Epsilon),
			}})
		}

		if len(rows) == 0 {
			fmt.Fprintln(os.Stderr, "No recipes found.")
			return nil
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

		cells := make([][]string, len(rows))
		for i, r := range rows {
			cells[i] = r.cells
		}
		fmt.Println(renderTable(
			[]string{"name", "version", "station", "bands", "tau", "kappa_min", "snr_min", "epsilon"},
			cells,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
		return nil
	},
}

var recipesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the full definition of one recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := resolveRecipe(args[0])
		if err != nil {
			return err
		}
		fmt.Print(recipe.Summary(r))
		return nil
	},
}

func init() {
	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesShowCmd)
	rootCmd.AddCommand(recipesCmd)
}
