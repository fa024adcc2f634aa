// Package sorts maps requested sort orders onto index fields.
package sorts

import (
	"strings"

	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
	"github.com/kailas-cloud/searchkit/internal/domain/search/sortorder"
)

type sortField struct {
	name     string
	nullable bool
}

var (
	created    = sortField{name: "created_at"}
	updated    = sortField{name: "updated_at"}
	popularity = sortField{name: "upvotes"}
	stars      = sortField{name: "star_count"}
	dueDate    = sortField{name: "due_date", nullable: true}
)

// keys are alias prefixes ("created" for created_asc / created_desc).
var byDocType = map[string]map[string]sortField{
	"issue":         {"created": created, "updated": updated, "popularity": popularity, "due_date": dueDate},
	"work_item":     {"created": created, "updated": updated, "popularity": popularity, "due_date": dueDate},
	"merge_request": {"created": created, "updated": updated, "popularity": popularity},
	"milestone":     {"created": created, "updated": updated, "due_date": dueDate},
	"project":       {"created": created, "updated": updated, "stars": stars},
}

// order_by values accepted alongside a sort direction.
var orderByAliases = map[string]string{
	"created_at": "created",
	"created":    "created",
	"updated_at": "updated",
	"updated":    "updated",
	"popularity": "popularity",
	"upvotes":    "popularity",
	"star_count": "stars",
	"stars":      "stars",
	"due_date":   "due_date",
}

// Lookup resolves either an order_by/sort pair or a sort alias
// ("created_desc"). The pair wins when orderBy is set. Unknown document
// types or keys yield an empty Spec, meaning relevance order.
func Lookup(docType, orderBy, sort string) sortorder.Spec {
	fields, ok := byDocType[docType]
	if !ok {
		return nil
	}

	key, dir, ok := resolve(orderBy, sort)
	if !ok {
		return nil
	}
	f, ok := fields[key]
	if !ok {
		return nil
	}
	return sortorder.Spec{{Name: f.name, Direction: dir, Nullable: f.nullable}}
}

func resolve(orderBy, sort string) (string, sortorder.Direction, bool) {
	if orderBy != "" {
		key, ok := orderByAliases[orderBy]
		if !ok {
			return "", "", false
		}
		dir, err := sortorder.ParseDirection(sort)
		if err != nil {
			dir = sortorder.Desc
		}
		return key, dir, true
	}

	i := strings.LastIndexByte(sort, '_')
	if i <= 0 {
		return "", "", false
	}
	dir, err := sortorder.ParseDirection(sort[i+1:])
	if err != nil {
		return "", "", false
	}
	return sort[:i], dir, true
}

// SortBy writes spec as the document sort. Count-only documents are not sorted.
func SortBy(doc *querydoc.Document, spec sortorder.Spec, countOnly bool) {
	if countOnly || len(spec) == 0 {
		return
	}
	doc.Sort = spec.Clauses()
}
