package accident

import (
	"cmp"
	"regexp"
)

var (
	// Monthly extracts, e.g. datagis-09-2020.zip.
	reStandardFile = regexp.MustCompile(`^data-?gis-?(\d\d)-(\d\d\d\d)`)
	// Yearly bundles published for December, e.g. datagis2019.zip or datagis-rok-2017.zip.
	reDecemberFile = regexp.MustCompile(`^data-?gis-?(rok)?-?(\d\d\d\d)`)
)

// Period is the reporting month and year an archive covers.
type Period struct {
	Month string `json:"month"`
	Year  string `json:"year"`
}

// Compare orders periods chronologically.
func (p Period) Compare(o Period) int {
	if c := cmp.Compare(p.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(p.Month, o.Month)
}

func (p Period) String() string {
	return p.Year + "-" + p.Month
}

// DecodeFilename extracts the period from an archive file name. The second
// return value is false when neither naming pattern matches.
func DecodeFilename(name string) (Period, bool) {
	if m := reStandardFile.FindStringSubmatch(name); m != nil {
		return Period{Month: m[1], Year: m[2]}, true
	}
	if m := reDecemberFile.FindStringSubmatch(name); m != nil {
		return Period{Month: "12", Year: m[2]}, true
	}
	return Period{}, false
}
