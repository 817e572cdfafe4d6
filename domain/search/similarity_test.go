package search

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected float64
	}{
		{"identical vectors", []float64{1, 0, 0}, []float64{1, 0, 0}, 1.0},
		{"opposite vectors", []float64{1, 0, 0}, []float64{-1, 0, 0}, -1.0},
		{"orthogonal vectors", []float64{1, 0, 0}, []float64{0, 1, 0}, 0.0},
		{"zero vector a", []float64{0, 0, 0}, []float64{1, 0, 0}, 0.0},
		{"zero vector b", []float64{1, 0, 0}, []float64{0, 0, 0}, 0.0},
		{"mismatched lengths", []float64{1, 0}, []float64{1, 0, 0}, 0.0},
		{"empty vectors", []float64{}, []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity_ScaleInvariant(t *testing.T) {
	a := []float64{0.3, 0.4, 0.5}
	b := []float64{0.6, 0.8, 1.0}

	got := CosineSimilarity(a, b)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("scaled copies should have similarity 1.0, got %v", got)
	}
}

func TestClampSimilarity(t *testing.T) {
	if got := ClampSimilarity(-0.5); got != 0 {
		t.Errorf("ClampSimilarity(-0.5) = %v, want 0", got)
	}
	if got := ClampSimilarity(1.5); got != 1 {
		t.Errorf("ClampSimilarity(1.5) = %v, want 1", got)
	}
	if got := ClampSimilarity(0.42); got != 0.42 {
		t.Errorf("ClampSimilarity(0.42) = %v, want 0.42", got)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})

	var mag float64
	for _, x := range v {
		mag += x * x
	}
	if math.Abs(math.Sqrt(mag)-1.0) > 1e-9 {
		t.Errorf("normalized magnitude = %v, want 1", math.Sqrt(mag))
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize([]float64{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("element %d = %v, want 0", i, x)
		}
	}
}

func TestRankAboveThreshold_OrdersDescending(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector(1, []float64{0.5, 0.5}),
		NewStoredVector(2, []float64{1, 0}),
		NewStoredVector(3, []float64{0.9, 0.1}),
	}

	matches := RankAboveThreshold([]float64{1, 0}, vectors, 0.1, 10)

	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	if matches[0].ProductID() != 2 {
		t.Errorf("first match = %d, want 2", matches[0].ProductID())
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity() > matches[i-1].Similarity() {
			t.Errorf("matches not sorted descending at %d", i)
		}
	}
}

func TestRankAboveThreshold_StrictlyAbove(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector(1, []float64{1, 0}),
	}

	// Exact equality with the threshold is excluded.
	matches := RankAboveThreshold([]float64{1, 0}, vectors, 1.0, 10)
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

func TestRankAboveThreshold_TiesKeepInputOrder(t *testing.T) {
	vectors := []StoredVector{
		NewStoredVector(5, []float64{1, 0}),
		NewStoredVector(2, []float64{2, 0}),
		NewStoredVector(9, []float64{3, 0}),
	}

	matches := RankAboveThreshold([]float64{1, 0}, vectors, 0.5, 10)

	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	want := []int64{5, 2, 9}
	for i, id := range want {
		if matches[i].ProductID() != id {
			t.Errorf("match %d = %d, want %d", i, matches[i].ProductID(), id)
		}
	}
}

func TestRankAboveThreshold_Limit(t *testing.T) {
	var vectors []StoredVector
	for i := int64(1); i <= 10; i++ {
		vectors = append(vectors, NewStoredVector(i, []float64{1, float64(i) / 100}))
	}

	matches := RankAboveThreshold([]float64{1, 0}, vectors, 0.1, 4)
	if len(matches) != 4 {
		t.Errorf("got %d matches, want 4", len(matches))
	}
}

func TestRankAboveThreshold_Empty(t *testing.T) {
	if got := RankAboveThreshold([]float64{1}, nil, 0.1, 10); len(got) != 0 {
		t.Errorf("got %d matches, want 0", len(got))
	}
	if got := RankAboveThreshold([]float64{1}, []StoredVector{NewStoredVector(1, []float64{1})}, 0.1, 0); len(got) != 0 {
		t.Errorf("limit 0 should return no matches")
	}
}
