package accident

import (
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var sentinelText = strconv.Itoa(Sentinel)

// Builder accumulates raw records for one region and converts them into a
// typed Dataset.
type Builder struct {
	raw     [][]string
	skipped int
}

// NewBuilder returns a Builder with one accumulator per schema field.
func NewBuilder() *Builder {
	return &Builder{raw: make([][]string, len(Schema))}
}

// Add appends one positional record. Numeric fields holding an invalid-number
// marker are replaced by the sentinel; float fields get a period decimal
// separator. Records whose width does not match the schema are rejected.
func (b *Builder) Add(record []string) error {
	if len(record) != len(Schema) {
		b.skipped++
		return eris.Errorf("accident: record has %d fields, want %d", len(record), len(Schema))
	}
	for i, raw := range record {
		kind := Schema[i].Kind
		switch {
		case kind.Numeric() && IsInvalidNumber(raw):
			raw = sentinelText
		case kind == KindFloat32:
			raw = NormalizeDecimal(raw)
		}
		b.raw[i] = append(b.raw[i], raw)
	}
	return nil
}

// Rows returns the number of accepted records.
func (b *Builder) Rows() int {
	return len(b.raw[0])
}

// Skipped returns the number of rejected records.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Build converts the accumulated text into typed columns and appends the
// region column. A field that fails conversion is logged, kept as text and
// recorded in Dataset.Failed.
func (b *Builder) Build(region string) *Dataset {
	ds := NewDataset()
	for i, f := range Schema {
		col, err := Convert(f.Kind, b.raw[i])
		if err != nil {
			zap.L().Warn("conversion failed",
				zap.String("component", "accident.builder"),
				zap.String("region", region),
				zap.String("field", f.Name),
				zap.Error(err),
			)
			ds.Columns[f.Name] = TextColumn(b.raw[i])
			ds.Failed[f.Name] = err.Error()
			continue
		}
		ds.Columns[f.Name] = col
	}

	n := ds.Columns[Schema[0].Name].Len()
	regions := make(TextColumn, n)
	for i := range regions {
		regions[i] = region
	}
	ds.Columns[RegionField] = regions
	return ds
}
