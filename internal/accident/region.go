package accident

// Region maps an abbreviation to the two-digit code naming its CSV member.
type Region struct {
	Abbr string `json:"abbr" yaml:"abbr"`
	Code string `json:"code" yaml:"code"`
}

// Regions lists every known region in canonical order.
var Regions = []Region{
	{"PHA", "00"},
	{"STC", "01"},
	{"JHC", "02"},
	{"PLK", "03"},
	{"ULK", "04"},
	{"HKK", "05"},
	{"JHM", "06"},
	{"MSK", "07"},
	{"OLK", "14"},
	{"ZLK", "15"},
	{"VYS", "16"},
	{"PAK", "17"},
	{"LBK", "18"},
	{"KVK", "19"},
}

// RegionCode returns the source code for an abbreviation.
func RegionCode(abbr string) (string, bool) {
	for _, r := range Regions {
		if r.Abbr == abbr {
			return r.Code, true
		}
	}
	return "", false
}

// RegionAbbrs returns all region abbreviations in canonical order.
func RegionAbbrs() []string {
	out := make([]string, len(Regions))
	for i, r := range Regions {
		out[i] = r.Abbr
	}
	return out
}

// MemberName is the archive member holding a region's records.
func MemberName(code string) string {
	return code + ".csv"
}
