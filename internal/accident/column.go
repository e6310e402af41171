package accident

import (
	"encoding/gob"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Column is a homogeneous array of one field's values.
type Column interface {
	Kind() Kind
	Len() int
	// Strings renders every value as text.
	Strings() []string
	// Value returns the i-th value as its Go scalar.
	Value(i int) any
}

// TextColumn holds text values.
type TextColumn []string

// Int32Column holds 32-bit integers.
type Int32Column []int32

// Float32Column holds 32-bit floats.
type Float32Column []float32

// DateColumn holds calendar dates (UTC midnight).
type DateColumn []time.Time

func init() {
	gob.Register(TextColumn{})
	gob.Register(Int32Column{})
	gob.Register(Float32Column{})
	gob.Register(DateColumn{})
}

func (c TextColumn) Kind() Kind        { return KindText }
func (c TextColumn) Len() int          { return len(c) }
func (c TextColumn) Value(i int) any   { return c[i] }
func (c TextColumn) Strings() []string { return c }

func (c Int32Column) Kind() Kind      { return KindInt32 }
func (c Int32Column) Len() int        { return len(c) }
func (c Int32Column) Value(i int) any { return c[i] }
func (c Int32Column) Strings() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = strconv.FormatInt(int64(v), 10)
	}
	return out
}

func (c Float32Column) Kind() Kind      { return KindFloat32 }
func (c Float32Column) Len() int        { return len(c) }
func (c Float32Column) Value(i int) any { return c[i] }
func (c Float32Column) Strings() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return out
}

func (c DateColumn) Kind() Kind      { return KindDate }
func (c DateColumn) Len() int        { return len(c) }
func (c DateColumn) Value(i int) any { return c[i] }
func (c DateColumn) Strings() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Format(DateLayout)
	}
	return out
}

// Convert turns raw text values into a column of the given kind. Conversion
// stops at the first value that does not parse.
func Convert(kind Kind, raw []string) (Column, error) {
	switch kind {
	case KindText:
		return TextColumn(raw), nil

	case KindInt32:
		out := make(Int32Column, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
			if err != nil {
				return nil, eris.Wrapf(err, "accident: row %d: parse int32 %q", i, s)
			}
			out[i] = int32(v)
		}
		return out, nil

	case KindFloat32:
		out := make(Float32Column, len(raw))
		for i, s := range raw {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
			if err != nil {
				return nil, eris.Wrapf(err, "accident: row %d: parse float32 %q", i, s)
			}
			out[i] = float32(v)
		}
		return out, nil

	case KindDate:
		out := make(DateColumn, len(raw))
		for i, s := range raw {
			v, err := time.Parse(DateLayout, strings.TrimSpace(s))
			if err != nil {
				return nil, eris.Wrapf(err, "accident: row %d: parse date %q", i, s)
			}
			out[i] = v
		}
		return out, nil

	default:
		return nil, eris.Errorf("accident: unknown kind %d", kind)
	}
}

// concat joins two columns of the same kind into a newly allocated column.
// The second return value is false when the kinds differ.
func concat(a, b Column) (Column, bool) {
	switch x := a.(type) {
	case TextColumn:
		if y, ok := b.(TextColumn); ok {
			return join(x, y), true
		}
	case Int32Column:
		if y, ok := b.(Int32Column); ok {
			return join(x, y), true
		}
	case Float32Column:
		if y, ok := b.(Float32Column); ok {
			return join(x, y), true
		}
	case DateColumn:
		if y, ok := b.(DateColumn); ok {
			return join(x, y), true
		}
	}
	return nil, false
}

func join[S ~[]E, E any](a, b S) S {
	out := make(S, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
