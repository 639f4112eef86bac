package report

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/YuminosukeSato/sleepstat/pkg/errors"
)

// Compression selects the report codec.
type Compression string

const (
	CompressNone Compression = "none"
	CompressGzip Compression = "gzip"
	CompressZstd Compression = "zstd"
)

// ParseCompression converts a config string into a Compression.
func ParseCompression(s string) (Compression, error) {
	switch Compression(s) {
	case CompressNone, "":
		return CompressNone, nil
	case CompressGzip, CompressZstd:
		return Compression(s), nil
	}
	return CompressNone, errors.NewValidationError("output.compress", "must be none, gzip or zstd", s)
}

// Ext returns the file suffix added by the codec.
func (c Compression) Ext() string {
	switch c {
	case CompressGzip:
		return ".gz"
	case CompressZstd:
		return ".zst"
	}
	return ""
}

// Save creates path (plus the codec suffix), streams render into it and
// returns the final path.
func Save(path string, c Compression, render func(io.Writer) error) (final string, err error) {
	final = path + c.Ext()
	f, err := os.Create(final)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", final)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", final)
		}
	}()

	var enc io.WriteCloser
	switch c {
	case CompressGzip:
		enc = gzip.NewWriter(f)
	case CompressZstd:
		if enc, err = zstd.NewWriter(f); err != nil {
			return "", errors.Wrap(err, "zstd writer")
		}
	}

	if enc == nil {
		return final, errors.SafeExecute("report.render", func() error { return render(f) })
	}
	if err := errors.SafeExecute("report.render", func() error { return render(enc) }); err != nil {
		_ = enc.Close()
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrapf(err, "flush %s", final)
	}
	return final, nil
}
