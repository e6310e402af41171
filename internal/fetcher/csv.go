package fetcher

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune              // default ','
	Encoding  encoding.Encoding // source encoding; nil means UTF-8
	// LazyQuotes accepts stray quotes inside fields instead of failing the read.
	LazyQuotes bool
}

// ReadCSV reads delimited records from r and calls fn for each one. Records
// may have a variable number of fields. The record slice is reused between
// calls; fn must copy it to keep it. Returns the number of records passed to
// fn. An error from fn stops reading and is returned.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions, fn func(record []string) error) (int, error) {
	if opts.Encoding != nil {
		r = opts.Encoding.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	n := 0
	for {
		if ctx.Err() != nil {
			return n, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}

		record, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, eris.Wrap(err, "csv: read row")
		}

		if err := fn(record); err != nil {
			return n, err
		}
		n++
	}
}
