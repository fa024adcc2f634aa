package filters

import (
	"slices"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

// ByKNN constrains the nearest-neighbour search with the keyword filters
// accumulated so far. It applies only when the document carries a vector
// clause and the target index supports vectors.
func ByKNN(doc *querydoc.Document, vectorsSupported bool) {
	if !vectorsSupported || len(doc.KNN) == 0 {
		return
	}
	if _, ok := doc.KNN["query_vector"]; !ok {
		return
	}
	doc.KNN["filter"] = slices.Clone(doc.Bool.Filter)
}
