package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// missingTokens are the cell values read as missing. Cells are matched as
// read, so a whitespace-only cell stays a value.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// CSVOptions controls ReadCSV.
type CSVOptions struct {
	// Delimiter between fields; 0 means ','.
	Delimiter rune
}

// ReadCSV reads a delimited file with a header row. A column is numeric when
// every non-missing cell parses as a float; otherwise it is text.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.NewModelError("ReadCSV", "empty data", errors.ErrEmptyData)
	}

	header := records[0]
	rows := records[1:]
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, errors.NewDimensionError(fmt.Sprintf("ReadCSV(line %d)", i+2), len(header), len(row), 1)
		}
	}

	t := New()
	for j, name := range header {
		name = strings.TrimSpace(name)
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[j]
		}
		if nums, ok := parseNumeric(cells); ok {
			if err := t.AddNumeric(name, nums); err != nil {
				return nil, err
			}
			continue
		}
		valid := make([]bool, len(cells))
		for i, c := range cells {
			valid[i] = !missingTokens[c]
		}
		if err := t.AddText(name, cells, valid); err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		t.nrows = 0
	}
	return t, nil
}

// WriteCSV writes t with a header row. Missing cells are written empty.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	record := make([]string, t.NCols())
	for i := 0; i < t.NRows(); i++ {
		for j, c := range t.cols {
			record[j] = ""
			if !c.missing(i) {
				if c.kind == Numeric {
					record[j] = formatFloat(c.num[i])
				} else {
					record[j] = c.str[i]
				}
			}
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func parseNumeric(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if missingTokens[c] {
			out[i] = nan
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fingerprint returns a short content hash of raw input bytes, used to tie a
// report to the exact file it was produced from.
func Fingerprint(raw []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}
