package spectrum

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
)

// ReadCSV parses a two-column wavenumber,intensity CSV. A single header row
// is tolerated and skipped when the first field does not parse as a number.
func ReadCSV(r io.Reader) (*Spectrum, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var nu, intensity []float64
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "spectrum: read csv")
		}
		line++

		if len(record) < 2 {
			return nil, eris.Wrapf(ErrInvalidSpectrum, "line %d: expected 2 columns, got %d", line, len(record))
		}

		w, werr := strconv.ParseFloat(record[0], 64)
		i, ierr := strconv.ParseFloat(record[1], 64)
		if werr != nil || ierr != nil {
			if line == 1 {
				// Header row.
				continue
			}
			return nil, eris.Wrapf(ErrInvalidSpectrum, "line %d: non-numeric sample %q,%q", line, record[0], record[1])
		}

		nu = append(nu, w)
		intensity = append(intensity, i)
	}

	return New(nu, intensity)
}

// ReadCSVFile opens and parses a spectrum CSV from disk.
func ReadCSVFile(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "spectrum: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	s, err := ReadCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "spectrum: parse %s", path)
	}
	return s, nil
}
