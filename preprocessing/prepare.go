package preprocessing

import (
	"strings"

	"github.com/YuminosukeSato/sleepstat/dataset"
	"github.com/YuminosukeSato/sleepstat/pkg/errors"
	"github.com/YuminosukeSato/sleepstat/pkg/log"
)

// MissingLabel is the text a missing categorical cell is coerced to. It then
// behaves as an ordinary category.
const MissingLabel = "nan"

// PrepareOptions configures Prepare.
type PrepareOptions struct {
	// DisorderColumn is the categorical label to normalize.
	DisorderColumn string
	// IDColumn is dropped when present.
	IDColumn string
	// Required lists every column a downstream model reads.
	Required []string
	// Logger defaults to the process-wide "preprocessing" logger.
	Logger log.Logger
}

// PrepareReport describes what Prepare did.
type PrepareReport struct {
	RowsIn       int
	RowsOut      int
	DroppedID    bool
	CoercedCells int
}

// Prepare builds the analysis table:
//
//  1. every required column must exist (MissingColumnError otherwise),
//  2. the disorder column is coerced to text with "\r" removed and
//     surrounding whitespace trimmed,
//  3. the identifier column is dropped if present,
//  4. rows with a missing value in any remaining column are dropped.
//
// The input table is not modified.
func Prepare(raw *dataset.Table, opts PrepareOptions) (*dataset.Table, *PrepareReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("preprocessing")
	}
	if opts.DisorderColumn == "" {
		return nil, nil, errors.NewValidationError("DisorderColumn", "must not be empty", opts.DisorderColumn)
	}

	required := append([]string{opts.DisorderColumn}, opts.Required...)
	for _, name := range required {
		if !raw.Has(name) {
			return nil, nil, errors.NewMissingColumnError("Prepare", name)
		}
	}

	rep := &PrepareReport{RowsIn: raw.NRows()}

	labels, coerced, err := normalizeLabels(raw, opts.DisorderColumn)
	if err != nil {
		return nil, nil, err
	}
	rep.CoercedCells = coerced
	if coerced > 0 {
		errors.Warn(errors.NewDataConversionWarning("missing", "string",
			opts.DisorderColumn+": missing labels kept as category \""+MissingLabel+"\""))
	}

	tbl, err := raw.WithText(opts.DisorderColumn, labels)
	if err != nil {
		return nil, nil, err
	}

	if opts.IDColumn != "" && tbl.Has(opts.IDColumn) {
		tbl = tbl.Drop(opts.IDColumn)
		rep.DroppedID = true
	}

	keep := make([]bool, tbl.NRows())
	for i := range keep {
		keep[i] = !tbl.RowHasMissing(i)
	}
	tbl, err = tbl.FilterRows(keep)
	if err != nil {
		return nil, nil, err
	}
	rep.RowsOut = tbl.NRows()

	logger.Info("analysis table prepared",
		log.OperationKey, log.OperationPrepare,
		log.SamplesKey, rep.RowsOut,
		log.DroppedKey, rep.RowsIn-rep.RowsOut,
		log.FeaturesKey, tbl.NCols(),
	)
	if counts, err := dataset.ValueCounts(tbl, opts.DisorderColumn); err == nil {
		for _, vc := range counts {
			logger.Debug("disorder category", log.ColumnKey, opts.DisorderColumn, "value", vc.Value, "count", vc.Count)
		}
	}
	return tbl, rep, nil
}

// CleanLabel strips carriage returns and surrounding whitespace.
func CleanLabel(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r", ""))
}

func normalizeLabels(t *dataset.Table, name string) ([]string, int, error) {
	labels := make([]string, t.NRows())
	coerced := 0
	for i := range labels {
		s, ok, err := t.CellString(name, i)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			s = MissingLabel
			coerced++
		}
		labels[i] = CleanLabel(s)
	}
	return labels, coerced, nil
}
