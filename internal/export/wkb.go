package export

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/sells-group/izv-data/internal/accident"
)

// SRID of the S-JTSK / Krovak East North coordinates in fields d and e.
const SRID = 5514

// EncodePoint returns the EWKB encoding of (x, y) tagged with SRID. It
// returns nil, nil when either coordinate is the sentinel.
func EncodePoint(x, y float32) ([]byte, error) {
	if x == accident.Sentinel || y == accident.Sentinel {
		return nil, nil
	}
	pt := geom.NewPointFlat(geom.XY, []float64{float64(x), float64(y)}).SetSRID(SRID)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "export: encode point")
	}
	return data, nil
}
