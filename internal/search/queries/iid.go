package queries

import (
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/search/filters"
)

// ByIID looks a document up by its internal id within a document type.
// No text clause is added.
func ByIID(doc *querydoc.Document, iid int64, docType string) error {
	doc.AddFilter(clause.NamedTerm("iid", clause.Name(docType, "related", "iid"), iid))
	return filters.ByType(doc, docType) //nolint:wrapcheck // argument errors name their key
}
