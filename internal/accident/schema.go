// Package accident defines the column schema, region table and typed columnar
// datasets for the national traffic-accident extracts.
package accident

import (
	"strings"
)

// Kind is the scalar type of a schema field.
type Kind int

// Field kinds.
const (
	KindText Kind = iota
	KindInt32
	KindFloat32
	KindDate
)

// String returns the kind name used in schema listings.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Numeric reports whether values of this kind are subject to sentinel substitution.
func (k Kind) Numeric() bool {
	return k == KindInt32 || k == KindFloat32
}

// Field is one positional column of a source CSV row.
type Field struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"-"`
}

// MarshalYAML renders the field with a readable kind.
func (f Field) MarshalYAML() (any, error) {
	return struct {
		Name string `yaml:"name"`
		Kind string `yaml:"kind"`
	}{f.Name, f.Kind.String()}, nil
}

// RegionField is the synthetic column appended to every parsed region.
const RegionField = "region"

// DateLayout is the layout of date fields in the source CSV.
const DateLayout = "2006-01-02"

// Sentinel replaces numeric values whose raw text is a known invalid marker.
const Sentinel = -1

// Schema is the ordered list of the 64 fields of a source record.
var Schema = []Field{
	{"p1", KindText}, {"p36", KindInt32}, {"p37", KindInt32}, {"p2a", KindDate},
	{"weekday(p2a)", KindText}, {"p2b", KindInt32}, {"p6", KindInt32}, {"p7", KindInt32},
	{"p8", KindInt32}, {"p9", KindInt32}, {"p10", KindInt32}, {"p11", KindInt32},
	{"p12", KindInt32}, {"p13a", KindInt32}, {"p13b", KindInt32}, {"p13c", KindInt32},
	{"p14", KindInt32}, {"p15", KindInt32}, {"p16", KindInt32}, {"p17", KindInt32},
	{"p18", KindInt32}, {"p19", KindInt32}, {"p20", KindInt32}, {"p21", KindInt32},
	{"p22", KindInt32}, {"p23", KindInt32}, {"p24", KindInt32}, {"p27", KindInt32},
	{"p28", KindInt32}, {"p34", KindInt32}, {"p35", KindInt32}, {"p39", KindInt32},
	{"p44", KindInt32}, {"p45a", KindInt32}, {"p47", KindInt32}, {"p48a", KindInt32},
	{"p49", KindInt32}, {"p50a", KindInt32}, {"p50b", KindInt32}, {"p51", KindInt32},
	{"p52", KindInt32}, {"p53", KindInt32}, {"p55a", KindInt32}, {"p57", KindInt32},
	{"p58", KindInt32}, {"a", KindFloat32}, {"b", KindFloat32}, {"d", KindFloat32},
	{"e", KindFloat32}, {"f", KindFloat32}, {"g", KindFloat32}, {"h", KindText},
	{"i", KindText}, {"j", KindInt32}, {"k", KindText}, {"l", KindText},
	{"n", KindText}, {"o", KindText}, {"p", KindText}, {"q", KindText},
	{"r", KindInt32}, {"s", KindInt32}, {"t", KindText}, {"p5a", KindInt32},
}

var schemaIndex = func() map[string]int {
	m := make(map[string]int, len(Schema))
	for i, f := range Schema {
		m[f.Name] = i
	}
	return m
}()

// FieldNames returns the schema field names in positional order followed by
// the synthetic region field.
func FieldNames() []string {
	names := make([]string, 0, len(Schema)+1)
	for _, f := range Schema {
		names = append(names, f.Name)
	}
	return append(names, RegionField)
}

// KindOf returns the declared kind of a field. The region field is text.
func KindOf(name string) (Kind, bool) {
	if name == RegionField {
		return KindText, true
	}
	i, ok := schemaIndex[name]
	if !ok {
		return 0, false
	}
	return Schema[i].Kind, true
}

// invalidNumbers are raw values that stand for a missing or unknown number.
var invalidNumbers = func() map[string]struct{} {
	m := map[string]struct{}{"": {}, "XX": {}}
	for _, c := range "ABDEFGHIL" {
		m[string(c)+":"] = struct{}{}
	}
	return m
}()

// IsInvalidNumber reports whether raw is one of the invalid-number markers.
func IsInvalidNumber(raw string) bool {
	_, ok := invalidNumbers[raw]
	return ok
}

// NormalizeDecimal converts a comma decimal separator to a period.
func NormalizeDecimal(raw string) string {
	return strings.ReplaceAll(raw, ",", ".")
}
