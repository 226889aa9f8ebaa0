// Package report renders logged evaluations into review artifacts.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/spectra-group/raman-qc/internal/store"
)

var summaryHeader = []string{
	"id", "created_at", "recipe", "version", "station", "source", "decision", "reasons",
}

var bandHeader = []string{
	"evaluation_id", "band", "role", "label", "center", "center_obs", "delta_nu",
	"snr", "rmse", "confidence", "kappa", "reasons",
}

// WriteXLSX writes one workbook with a summary sheet (one row per
// evaluation) and a band-detail sheet (one row per band per evaluation).
func WriteXLSX(path string, evals []store.Evaluation) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Evaluations")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	bands, err := f.AddSheet("Bands")
	if err != nil {
		return eris.Wrap(err, "report: add bands sheet")
	}

	addStringRow(summary, summaryHeader)
	addStringRow(bands, bandHeader)

	for _, ev := range evals {
		addStringRow(summary, []string{
			ev.ID,
			ev.CreatedAt.Format(time.RFC3339),
			ev.RecipeName,
			ev.RecipeVersion,
			ev.Station,
			ev.SpectrumSource,
			string(ev.Decision),
			strings.Join(ev.Reasons, "; "),
		})

		for _, br := range ev.Result.Bands {
			row := bands.AddRow()
			row.AddCell().Value = ev.ID
			row.AddCell().Value = br.Band.Name
			row.AddCell().Value = string(br.Band.Role)
			row.AddCell().Value = string(br.Label)
			addFloatCell(row, br.Band.Center)
			addFloatCell(row, br.Metrics.CenterObs)
			addFloatCell(row, br.Metrics.DeltaNu)
			addFloatCell(row, br.Metrics.SNR)
			addFloatCell(row, br.Metrics.RMSE)
			addFloatCell(row, br.Metrics.Confidence)
			addFloatCell(row, br.Metrics.Kappa)
			row.AddCell().Value = strings.Join(br.Reasons, "; ")
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}

func addFloatCell(row *xlsx.Row, v float64) {
	row.AddCell().SetFloatWithFormat(v, "0.####")
}

// FileName builds a timestamped default workbook name.
func FileName(now time.Time) string {
	return fmt.Sprintf("qc-evaluations-%s.xlsx", now.Format("20060102-150405"))
}
