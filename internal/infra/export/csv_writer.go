// Package export writes report rows as CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

const defaultFlushEvery = 100

// CSVWriter writes a header followed by data rows, flushing every flushEvery rows
// so large exports reach the client while the cursor is still open.
type CSVWriter struct {
	w          *csv.Writer
	flushEvery int
	pending    int
	rows       int
}

// NewCSVWriter writes header to out and returns a writer for the data rows.
func NewCSVWriter(out io.Writer, header []string) (*CSVWriter, error) {
	w := &CSVWriter{w: csv.NewWriter(out), flushEvery: defaultFlushEvery}
	if err := w.w.Write(header); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}

	return w, nil
}

// Write appends one data row.
func (w *CSVWriter) Write(record []string) error {
	if err := w.w.Write(record); err != nil {
		return errors.Wrap(err, "write csv row")
	}
	w.rows++
	w.pending++

	if w.pending >= w.flushEvery {
		w.pending = 0
		w.w.Flush()

		return errors.Wrap(w.w.Error(), "flush csv rows")
	}

	return nil
}

// Rows returns how many data rows were written.
func (w *CSVWriter) Rows() int {
	return w.rows
}

// Close flushes buffered rows. It does not close the underlying writer.
func (w *CSVWriter) Close() error {
	w.w.Flush()

	return errors.Wrap(w.w.Error(), "flush csv")
}

// FormatID renders a numeric primary key.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// FormatAmount renders a price or total with the shortest exact decimal form.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
