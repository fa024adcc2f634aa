// Package sortorder describes multi-field sort orders.
package sortorder

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchkit/internal/domain"
	"github.com/kailas-cloud/searchkit/internal/domain/search/clause"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Invert flips asc and desc.
func (d Direction) Invert() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// IsValid reports whether d is asc or desc.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// ParseDirection parses a case-insensitive direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", domain.InvalidOption("sort", fmt.Sprintf("must be asc or desc, got %q", s))
	}
	return d, nil
}

// Field is one entry of a sort order. Nullable marks fields that may be
// missing on some documents.
type Field struct {
	Name      string
	Direction Direction
	Nullable  bool
}

// Spec is an ordered list of sort fields; the last entry is the tie-breaker.
type Spec []Field

// Validate checks that the sort spec is non-empty with named fields and valid directions.
func (s Spec) Validate() error {
	if len(s) == 0 {
		return domain.MissingOption("sort")
	}
	for i, f := range s {
		if f.Name == "" {
			return domain.InvalidOption("sort", fmt.Sprintf("field %d has no name", i))
		}
		if !f.Direction.IsValid() {
			return domain.InvalidOption("sort", fmt.Sprintf("field %q has invalid direction %q", f.Name, f.Direction))
		}
	}
	return nil
}

// Inverted returns a copy with every direction flipped.
func (s Spec) Inverted() Spec {
	out := make(Spec, len(s))
	for i, f := range s {
		f.Direction = f.Direction.Invert()
		out[i] = f
	}
	return out
}

// Has reports whether the sort spec sorts on name.
func (s Spec) Has(name string) bool {
	for _, f := range s {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Clauses renders the sort array in the short form [{field: dir}].
func (s Spec) Clauses() []clause.Clause {
	out := make([]clause.Clause, 0, len(s))
	for _, f := range s {
		out = append(out, clause.Clause{f.Name: string(f.Direction)})
	}
	return out
}

// FromClauses reads a sort array back into a Spec. Both the short form
// {field: "asc"} and the long form {field: {"order": "asc"}} are accepted;
// entries it cannot read are skipped.
func FromClauses(clauses []clause.Clause) Spec {
	out := make(Spec, 0, len(clauses))
	for _, c := range clauses {
		for name, v := range c {
			var dir string
			switch val := v.(type) {
			case string:
				dir = val
			case map[string]any:
				dir, _ = val["order"].(string)
			}
			d, err := ParseDirection(dir)
			if err != nil {
				continue
			}
			out = append(out, Field{Name: name, Direction: d})
		}
	}
	return out
}
