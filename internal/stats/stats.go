// Package stats summarises a merged accident dataset per region: record
// counts, counts per year and the breakdown by the p24 field.
package stats

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/izv-data/internal/accident"
)

// CauseField is the field broken down by Summary.Causes.
const CauseField = "p24"

// Cause is one value of the p24 field with its label.
type Cause struct {
	Code  int32  `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Causes lists the p24 values in report order; "no regulation" comes last.
var Causes = []Cause{
	{1, "Přerušovaná žlutá"},
	{2, "Semafor mimo provoz"},
	{3, "Dopravní značky"},
	{4, "Přenosné dopravní značky"},
	{5, "Nevyznačena"},
	{0, "Žádná úprava"},
}

// RegionStats holds the counts for one region.
type RegionStats struct {
	Region string        `json:"region"`
	Rows   int           `json:"rows"`
	ByYear map[int]int   `json:"by_year"`
	Causes map[int32]int `json:"causes"`
}

// Summary holds per-region statistics sorted by region abbreviation.
type Summary struct {
	Total   int           `json:"total"`
	Regions []RegionStats `json:"regions"`
}

// Compute builds a Summary from ds. Year counts need p2a as dates and cause
// counts need p24 as integers; either is left empty when its field failed
// conversion.
func Compute(ds *accident.Dataset) (*Summary, error) {
	if ds.Empty() {
		return &Summary{}, nil
	}
	regionCol, ok := ds.Column(accident.RegionField).(accident.TextColumn)
	if !ok {
		return nil, eris.New("stats: dataset has no region column")
	}
	dates, _ := ds.Column("p2a").(accident.DateColumn)
	causes, _ := ds.Column(CauseField).(accident.Int32Column)

	byRegion := make(map[string]*RegionStats)
	for i, region := range regionCol {
		rs, ok := byRegion[region]
		if !ok {
			rs = &RegionStats{Region: region, ByYear: map[int]int{}, Causes: map[int32]int{}}
			byRegion[region] = rs
		}
		rs.Rows++
		if dates != nil {
			rs.ByYear[dates[i].Year()]++
		}
		if causes != nil {
			rs.Causes[causes[i]]++
		}
	}

	s := &Summary{Total: len(regionCol)}
	for _, rs := range byRegion {
		s.Regions = append(s.Regions, *rs)
	}
	sort.Slice(s.Regions, func(i, j int) bool { return s.Regions[i].Region < s.Regions[j].Region })
	return s, nil
}

// Region returns the stats for one region.
func (s *Summary) Region(abbr string) (RegionStats, bool) {
	for _, rs := range s.Regions {
		if rs.Region == abbr {
			return rs, true
		}
	}
	return RegionStats{}, false
}

// Years returns every year present in any region, ascending.
func (s *Summary) Years() []int {
	seen := map[int]bool{}
	var out []int
	for _, rs := range s.Regions {
		for y := range rs.ByYear {
			if !seen[y] {
				seen[y] = true
				out = append(out, y)
			}
		}
	}
	sort.Ints(out)
	return out
}

// CauseShare returns the percentage of all accidents with the given cause
// that happened in region. It is 0 when no region has that cause.
func (s *Summary) CauseShare(region string, code int32) float64 {
	total := 0
	own := 0
	for _, rs := range s.Regions {
		total += rs.Causes[code]
		if rs.Region == region {
			own = rs.Causes[code]
		}
	}
	if total == 0 {
		return 0
	}
	return float64(own) / float64(total) * 100
}

// WriteXLSX saves the cause table as a workbook with an absolute and a
// relative sheet, one column per region.
func (s *Summary) WriteXLSX(path string) error {
	file := xlsx.NewFile()

	abs, err := file.AddSheet("absolute")
	if err != nil {
		return eris.Wrap(err, "stats: add sheet")
	}
	rel, err := file.AddSheet("relative")
	if err != nil {
		return eris.Wrap(err, "stats: add sheet")
	}

	for _, sheet := range []*xlsx.Sheet{abs, rel} {
		header := sheet.AddRow()
		header.AddCell().SetString(CauseField)
		for _, rs := range s.Regions {
			header.AddCell().SetString(rs.Region)
		}
	}

	for _, c := range Causes {
		absRow := abs.AddRow()
		relRow := rel.AddRow()
		absRow.AddCell().SetString(c.Label)
		relRow.AddCell().SetString(c.Label)
		for _, rs := range s.Regions {
			absRow.AddCell().SetInt(rs.Causes[c.Code])
			relRow.AddCell().SetFloat(s.CauseShare(rs.Region, c.Code))
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "stats: save xlsx")
	}
	return nil
}
