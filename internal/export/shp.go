package export

import (
	"math"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/accident"
)

// Coordinate fields of each record, in S-JTSK (EPSG:5514).
const (
	FieldX = "d"
	FieldY = "e"
)

// shpAttributes are the record fields carried into the shapefile table. DBF
// field names are limited to 10 characters.
var shpAttributes = []struct {
	field string
	dbf   shp.Field
}{
	{"p1", shp.StringField("P1", 16)},
	{"p2a", shp.StringField("P2A", 10)},
	{"p2b", shp.NumberField("P2B", 4)},
	{"p13a", shp.NumberField("P13A", 4)},
	{"p13b", shp.NumberField("P13B", 4)},
	{"p13c", shp.NumberField("P13C", 4)},
	{"p24", shp.NumberField("P24", 2)},
	{"p36", shp.NumberField("P36", 2)},
	{accident.RegionField, shp.StringField("REGION", 3)},
}

// WriteShapefile writes one point per record located at (d, e). Records
// whose coordinates hold the sentinel are skipped. It returns the number of
// points written and skipped.
func WriteShapefile(path string, ds *accident.Dataset) (written, skipped int, err error) {
	xs, err := float32Column(ds, FieldX)
	if err != nil {
		return 0, 0, err
	}
	ys, err := float32Column(ds, FieldY)
	if err != nil {
		return 0, 0, err
	}

	if !strings.HasSuffix(path, ".shp") {
		path += ".shp"
	}
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := make([]shp.Field, len(shpAttributes))
	attrs := make([]accident.Column, len(shpAttributes))
	for i, a := range shpAttributes {
		fields[i] = a.dbf
		attrs[i] = ds.Column(a.field)
	}
	if err := w.SetFields(fields); err != nil {
		return 0, 0, eris.Wrap(err, "export: set shapefile fields")
	}

	for row := range ds.Len() {
		pt, ok := pointAt(xs, ys, row)
		if !ok {
			skipped++
			continue
		}
		idx := int(w.Write(pt))
		for i := range shpAttributes {
			if attrs[i] == nil {
				continue
			}
			if err := w.WriteAttribute(idx, i, attrValue(attrs[i], row)); err != nil {
				return written, skipped, eris.Wrapf(err, "export: write attribute %s", shpAttributes[i].field)
			}
		}
		written++
	}

	if skipped > 0 {
		zap.L().Debug("export: records without coordinates skipped",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return written, skipped, nil
}

func pointAt(xs, ys accident.Float32Column, row int) (*shp.Point, bool) {
	x, y := float64(xs[row]), float64(ys[row])
	if x == accident.Sentinel || y == accident.Sentinel || math.IsNaN(x) || math.IsNaN(y) {
		return nil, false
	}
	return &shp.Point{X: x, Y: y}, true
}

// attrValue passes numbers as int so the DBF writer formats them without
// decimals.
func attrValue(c accident.Column, row int) any {
	switch col := c.(type) {
	case accident.Int32Column:
		return int(col[row])
	case accident.DateColumn:
		return col[row].Format(accident.DateLayout)
	case accident.TextColumn:
		return col[row]
	default:
		return c.Strings()[row]
	}
}
