package export

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/izv-data/internal/accident"
)

// WriteCSV writes a header row and one row per record, comma separated and
// UTF-8 encoded.
func WriteCSV(w io.Writer, ds *accident.Dataset) (int, error) {
	names, cols := columns(ds)

	values := make([][]string, len(cols))
	for i, c := range cols {
		values[i] = c.Strings()
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return 0, eris.Wrap(err, "export: write csv header")
	}

	n := ds.Len()
	record := make([]string, len(cols))
	for row := range n {
		for i := range cols {
			record[i] = values[i][row]
		}
		if err := cw.Write(record); err != nil {
			return row, eris.Wrapf(err, "export: write csv row %d", row)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, eris.Wrap(err, "export: flush csv")
	}
	return n, nil
}

func writeCSVFile(path string, ds *accident.Dataset) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "export: create csv")
	}
	bw := bufio.NewWriter(f)

	n, err := WriteCSV(bw, ds)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = eris.Wrap(cerr, "export: close csv")
	}
	return n, err
}
