// Package export writes merged accident datasets to CSV, XLSX, point
// shapefiles and Postgres tables.
package export

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/sells-group/izv-data/internal/accident"
)

// Formats lists the file formats handled by WriteFile.
var Formats = []string{"csv", "xlsx", "shp"}

// WriteFile exports ds to path in the given file format and returns the
// number of rows written.
func WriteFile(format, path string, ds *accident.Dataset) (int, error) {
	if ds.Empty() {
		return 0, eris.New("export: dataset is empty")
	}
	if err := ds.Validate(); err != nil {
		return 0, eris.Wrap(err, "export: invalid dataset")
	}

	switch format {
	case "csv":
		return writeCSVFile(path, ds)
	case "xlsx":
		return WriteXLSX(path, ds)
	case "shp":
		n, _, err := WriteShapefile(path, ds)
		return n, err
	default:
		return 0, eris.Errorf("export: unknown format %q", format)
	}
}

// ColumnName turns a field name into a plain lower-case identifier usable as
// a SQL column, e.g. "weekday(p2a)" becomes "weekday_p2a".
func ColumnName(field string) string {
	var sb strings.Builder
	underscore := false
	for _, r := range strings.ToLower(field) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && sb.Len() > 0 {
			sb.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimRight(sb.String(), "_")
}

// columns returns ds's column names with their columns, in schema order.
func columns(ds *accident.Dataset) ([]string, []accident.Column) {
	names := ds.Names()
	cols := make([]accident.Column, len(names))
	for i, n := range names {
		cols[i] = ds.Columns[n]
	}
	return names, cols
}

// float32Column returns the named column when it holds converted floats.
func float32Column(ds *accident.Dataset, name string) (accident.Float32Column, error) {
	c, ok := ds.Column(name).(accident.Float32Column)
	if !ok {
		return nil, eris.Errorf("export: field %q is not numeric in this dataset", name)
	}
	return c, nil
}
