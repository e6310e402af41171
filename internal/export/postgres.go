package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/db"
)

// GeomColumn holds the EWKB point built from d and e. Use
// ST_GeomFromEWKB(geom) to turn it into a PostGIS geometry.
const GeomColumn = "geom"

var pgTypes = map[accident.Kind]string{
	accident.KindText:    "TEXT",
	accident.KindInt32:   "INTEGER",
	accident.KindFloat32: "REAL",
	accident.KindDate:    "DATE",
}

// TableDDL returns a CREATE TABLE IF NOT EXISTS statement matching the
// column kinds of ds. Fields that failed conversion are declared TEXT.
func TableDDL(table string, ds *accident.Dataset) string {
	names, cols := columns(ds)
	defs := make([]string, 0, len(names)+1)
	for i, name := range names {
		defs = append(defs, fmt.Sprintf("%s %s", pgx.Identifier{ColumnName(name)}.Sanitize(), pgTypes[cols[i].Kind()]))
	}
	defs = append(defs, pgx.Identifier{GeomColumn}.Sanitize()+" BYTEA")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		db.Identifier(table).Sanitize(), strings.Join(defs, ",\n\t"))
}

// TableColumns returns the SQL column names for ds, geometry last.
func TableColumns(ds *accident.Dataset) []string {
	names := ds.Names()
	out := make([]string, 0, len(names)+1)
	for _, n := range names {
		out = append(out, ColumnName(n))
	}
	return append(out, GeomColumn)
}

// ToPostgres loads ds into table, replacing rows of the regions it contains.
func ToPostgres(ctx context.Context, pool db.Pool, table string, ds *accident.Dataset) (int64, error) {
	if ds.Empty() {
		return 0, eris.New("export: dataset is empty")
	}
	if err := ds.Validate(); err != nil {
		return 0, eris.Wrap(err, "export: invalid dataset")
	}

	src, err := newDatasetSource(ds)
	if err != nil {
		return 0, err
	}

	cfg := db.ReplaceConfig{
		Table:     table,
		DDL:       TableDDL(table, ds),
		Columns:   TableColumns(ds),
		KeyColumn: accident.RegionField,
		Keys:      regionsOf(ds),
	}
	n, err := db.ReplaceSlice(ctx, pool, cfg, src)
	if err != nil {
		return 0, eris.Wrap(err, "export: postgres")
	}
	zap.L().Info("export: postgres load complete",
		zap.String("table", table),
		zap.Int64("rows", n),
		zap.Strings("regions", cfg.Keys),
	)
	return n, nil
}

func regionsOf(ds *accident.Dataset) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range ds.Column(accident.RegionField).Strings() {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// datasetSource feeds a dataset to COPY row by row.
type datasetSource struct {
	cols   []accident.Column
	xs, ys accident.Float32Column
	n, row int
	values []any
	err    error
}

func newDatasetSource(ds *accident.Dataset) (*datasetSource, error) {
	if ds.Column(accident.RegionField) == nil {
		return nil, eris.New("export: dataset has no region column")
	}
	_, cols := columns(ds)
	s := &datasetSource{cols: cols, n: ds.Len(), row: -1, values: make([]any, len(cols)+1)}
	// Geometry is left NULL when the coordinates did not convert.
	s.xs, _ = ds.Column(FieldX).(accident.Float32Column)
	s.ys, _ = ds.Column(FieldY).(accident.Float32Column)
	return s, nil
}

func (s *datasetSource) Next() bool {
	if s.err != nil {
		return false
	}
	s.row++
	return s.row < s.n
}

func (s *datasetSource) Values() ([]any, error) {
	for i, c := range s.cols {
		s.values[i] = c.Value(s.row)
	}
	s.values[len(s.cols)] = nil
	if s.xs != nil && s.ys != nil {
		g, err := EncodePoint(s.xs[s.row], s.ys[s.row])
		if err != nil {
			s.err = err
			return nil, err
		}
		if g != nil {
			s.values[len(s.cols)] = g
		}
	}
	return s.values, nil
}

func (s *datasetSource) Err() error {
	return s.err
}
