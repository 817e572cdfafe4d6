package database

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// PgVector adapts a float64 slice to the pgvector column type. On the wire
// pgvector speaks a bracketed text literal, "[0.12,0.34]", regardless of
// driver; Scan and Value translate between that literal and the slice.
type PgVector struct {
	elems []float64
}

// NewPgVector copies the given slice into a PgVector. The copy keeps the
// stored vector stable if the caller reuses its buffer.
func NewPgVector(elems []float64) PgVector {
	out := make([]float64, len(elems))
	copy(out, elems)
	return PgVector{elems: out}
}

// Floats returns a copy of the vector elements, or nil for a vector that
// was scanned from SQL NULL.
func (v PgVector) Floats() []float64 {
	if v.elems == nil {
		return nil
	}
	out := make([]float64, len(v.elems))
	copy(out, v.elems)
	return out
}

// Dimension returns the number of vector elements.
func (v PgVector) Dimension() int {
	return len(v.elems)
}

// Scan implements sql.Scanner. NULL scans to a nil vector; string and
// []byte values are parsed as pgvector literals.
func (v *PgVector) Scan(value any) error {
	switch src := value.(type) {
	case nil:
		v.elems = nil
		return nil
	case string:
		return v.parse(src)
	case []byte:
		return v.parse(string(src))
	default:
		return fmt.Errorf("cannot scan %T into PgVector", value)
	}
}

func (v *PgVector) parse(literal string) error {
	body := strings.TrimSpace(literal)
	body = strings.TrimPrefix(body, "[")
	body = strings.TrimSuffix(body, "]")
	if body == "" {
		v.elems = []float64{}
		return nil
	}

	fields := strings.Split(body, ",")
	elems := make([]float64, len(fields))
	for i, field := range fields {
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("parse element %d: %w", i, err)
		}
		elems[i] = f
	}

	v.elems = elems
	return nil
}

// Value implements driver.Valuer, producing the pgvector text literal.
func (v PgVector) Value() (driver.Value, error) {
	return v.String(), nil
}

// String renders the vector as a pgvector literal, "[0.12,0.34]".
func (v PgVector) String() string {
	var b strings.Builder
	b.Grow(len(v.elems)*12 + 2)
	b.WriteByte('[')
	for i, f := range v.elems {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
