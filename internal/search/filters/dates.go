package filters

import (
	"time"

	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
	"github.com/kailas-cloud/searchkit/internal/domain/search/querydoc"
)

const dateOnly = "2006-01-02"

// DateRange is an inclusive time window; zero bounds are open.
type DateRange struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// ByCreatedAt filters on creation time.
func ByCreatedAt(doc *querydoc.Document, r DateRange) { byDate(doc, "created_at", time.RFC3339, r) }

// ByUpdatedAt filters on last update time.
func ByUpdatedAt(doc *querydoc.Document, r DateRange) { byDate(doc, "updated_at", time.RFC3339, r) }

// ByClosedAt filters on close time.
func ByClosedAt(doc *querydoc.Document, r DateRange) { byDate(doc, "closed_at", time.RFC3339, r) }

// ByDueDate filters on the due date (day precision).
func ByDueDate(doc *querydoc.Document, r DateRange) { byDate(doc, "due_date", dateOnly, r) }

func byDate(doc *querydoc.Document, field, layout string, r DateRange) {
	if r.IsZero() {
		return
	}
	var gte, lte any
	if !r.From.IsZero() {
		gte = r.From.UTC().Format(layout)
	}
	if !r.To.IsZero() {
		lte = r.To.UTC().Format(layout)
	}
	doc.AddFilter(clause.Bounds(field, name(field), gte, lte))
}
