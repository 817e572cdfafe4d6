package search

// Type tags how a result set was produced. Every response carries exactly
// one of these so callers can distinguish vector results from the keyword
// paths taken when the vector infrastructure is degraded.
type Type string

// Type values.
const (
	// TypeSemantic marks results produced by vector similarity search.
	TypeSemantic Type = "semantic"

	// TypeSemanticFallback marks keyword results returned because the
	// similarity search found no candidates above the threshold.
	TypeSemanticFallback Type = "semantic_fallback"

	// TypeSemanticErrorFallback marks keyword results returned because
	// embedding or similarity search failed mid-request.
	TypeSemanticErrorFallback Type = "semantic_error_fallback"

	// TypeFallback marks keyword results returned because the vector
	// store was unavailable before any semantic work started.
	TypeFallback Type = "fallback"
)

// Valid reports whether t is one of the defined result types.
func (t Type) Valid() bool {
	switch t {
	case TypeSemantic, TypeSemanticFallback, TypeSemanticErrorFallback, TypeFallback:
		return true
	}
	return false
}

// Match is a single similarity-search candidate: a product ID and its
// cosine similarity to the query, in [0,1] for normalized vectors.
type Match struct {
	productID  int64
	similarity float64
}

// NewMatch creates a new Match.
func NewMatch(productID int64, similarity float64) Match {
	return Match{
		productID:  productID,
		similarity: similarity,
	}
}

// ProductID returns the matched product ID.
func (m Match) ProductID() int64 { return m.productID }

// Similarity returns the cosine similarity score.
func (m Match) Similarity() float64 { return m.similarity }

// Metadata carries observability figures for a semantic result set.
type Metadata struct {
	threshold     float64
	avgSimilarity float64
	topSimilarity float64
}

// NewMetadata creates search metadata from the threshold and the ordered
// match similarities. Zero matches yield zero averages.
func NewMetadata(threshold float64, similarities []float64) Metadata {
	m := Metadata{threshold: threshold}
	if len(similarities) == 0 {
		return m
	}
	var sum float64
	top := similarities[0]
	for _, s := range similarities {
		sum += s
		if s > top {
			top = s
		}
	}
	m.avgSimilarity = sum / float64(len(similarities))
	m.topSimilarity = top
	return m
}

// Threshold returns the threshold the search ran with.
func (m Metadata) Threshold() float64 { return m.threshold }

// AvgSimilarity returns the mean similarity of the result set.
func (m Metadata) AvgSimilarity() float64 { return m.avgSimilarity }

// TopSimilarity returns the highest similarity of the result set.
func (m Metadata) TopSimilarity() float64 { return m.topSimilarity }
