package accident

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Dataset is a set of equal-length typed columns keyed by field name.
type Dataset struct {
	Columns map[string]Column
	// Failed lists fields whose values could not be converted to their
	// declared kind; such fields are kept as TextColumn.
	Failed map[string]string
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Columns: make(map[string]Column),
		Failed:  make(map[string]string),
	}
}

// Column returns the named column, or nil.
func (d *Dataset) Column(name string) Column {
	if d == nil {
		return nil
	}
	return d.Columns[name]
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	if c, ok := d.Columns[RegionField]; ok {
		return c.Len()
	}
	if c, ok := d.Columns[Schema[0].Name]; ok {
		return c.Len()
	}
	for _, c := range d.Columns {
		return c.Len()
	}
	return 0
}

// Empty reports whether the dataset has no columns.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Columns) == 0
}

// Names returns column names in schema order, then any others sorted.
func (d *Dataset) Names() []string {
	var names []string
	seen := make(map[string]bool, len(d.Columns))
	for _, n := range FieldNames() {
		if _, ok := d.Columns[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range d.Columns {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Validate checks that every column has the same length.
func (d *Dataset) Validate() error {
	want := -1
	wantName := ""
	for _, name := range d.Names() {
		n := d.Columns[name].Len()
		if want < 0 {
			want, wantName = n, name
			continue
		}
		if n != want {
			return eris.Errorf("accident: column %q has %d rows, %q has %d", name, n, wantName, want)
		}
	}
	return nil
}

// Merge concatenates src onto dst field by field and returns the result.
// When dst is empty, src itself is returned. Fields whose kinds differ
// between the two are joined as text and marked failed. Fields present
// only in dst are dropped.
func Merge(dst, src *Dataset) *Dataset {
	if dst.Empty() {
		return src
	}
	if src.Empty() {
		return dst
	}

	out := NewDataset()
	for name, f := range dst.Failed {
		out.Failed[name] = f
	}
	for name, f := range src.Failed {
		out.Failed[name] = f
	}

	for name, b := range src.Columns {
		a, ok := dst.Columns[name]
		if !ok {
			continue
		}
		if c, ok := concat(a, b); ok {
			out.Columns[name] = c
			continue
		}
		out.Columns[name] = join(TextColumn(a.Strings()), TextColumn(b.Strings()))
		if _, ok := out.Failed[name]; !ok {
			out.Failed[name] = "mixed kinds " + a.Kind().String() + " and " + b.Kind().String()
		}
	}
	return out
}
