package search

import (
	"math"
	"testing"
)

func TestType_Valid(t *testing.T) {
	valid := []Type{TypeSemantic, TypeSemanticFallback, TypeSemanticErrorFallback, TypeFallback}
	for _, typ := range valid {
		if !typ.Valid() {
			t.Errorf("%q should be valid", typ)
		}
	}
	if Type("hybrid").Valid() {
		t.Error("unknown type should be invalid")
	}
	if Type("").Valid() {
		t.Error("empty type should be invalid")
	}
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(0.1, []float64{0.9, 0.5, 0.7})

	if m.Threshold() != 0.1 {
		t.Errorf("Threshold() = %v, want 0.1", m.Threshold())
	}
	if m.TopSimilarity() != 0.9 {
		t.Errorf("TopSimilarity() = %v, want 0.9", m.TopSimilarity())
	}
	if math.Abs(m.AvgSimilarity()-0.7) > 1e-9 {
		t.Errorf("AvgSimilarity() = %v, want 0.7", m.AvgSimilarity())
	}
}

func TestNewMetadata_Empty(t *testing.T) {
	m := NewMetadata(0.3, nil)

	if m.Threshold() != 0.3 {
		t.Errorf("Threshold() = %v, want 0.3", m.Threshold())
	}
	if m.TopSimilarity() != 0 || m.AvgSimilarity() != 0 {
		t.Errorf("zero matches should yield zero figures, got top=%v avg=%v",
			m.TopSimilarity(), m.AvgSimilarity())
	}
}

func TestProductEmbedding_DefensiveCopies(t *testing.T) {
	combined := []float64{1, 2, 3}
	e := NewProductEmbedding(7, nil, nil, combined)

	combined[0] = 99
	if e.Combined()[0] != 1 {
		t.Error("constructor should copy the input vector")
	}

	out := e.Combined()
	out[1] = 99
	if e.Combined()[1] != 2 {
		t.Error("getter should return a copy")
	}
}
