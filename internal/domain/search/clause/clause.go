// Package clause models the boolean query DSL consumed by the search engine.
package clause

import "strings"

// Clause is one query term (term, terms, range, match, nested bool, ...) in wire form.
// Clauses are treated as immutable once appended to a Bool.
type Clause map[string]any

// Name joins non-empty parts into a clause identifier ("filters:state", "issue:match:search_terms").
func Name(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}

// Term matches an exact value using the short form {"term":{field:value}}.
func Term(field string, value any) Clause {
	return Clause{"term": map[string]any{field: value}}
}

// NamedTerm matches an exact value using the long form, carrying an optional _name.
func NamedTerm(field, name string, value any) Clause {
	body := map[string]any{"value": value}
	if name != "" {
		body["_name"] = name
	}
	return Clause{"term": map[string]any{field: body}}
}

// Terms matches any of the given values.
func Terms[T any](field string, values []T) Clause {
	return Clause{"terms": map[string]any{field: values}}
}

// NamedTerms matches any of the given values and carries a _name.
func NamedTerms[T any](name, field string, values []T) Clause {
	body := map[string]any{field: values}
	if name != "" {
		body["_name"] = name
	}
	return Clause{"terms": body}
}

// Range constrains a field with a single comparison operator (gt, gte, lt, lte).
func Range(field, op string, value any) Clause {
	return Clause{"range": map[string]any{field: map[string]any{op: value}}}
}

// Bounds constrains a field with inclusive lower/upper bounds; nil bounds are omitted.
func Bounds(field, name string, gte, lte any) Clause {
	body := map[string]any{}
	if gte != nil {
		body["gte"] = gte
	}
	if lte != nil {
		body["lte"] = lte
	}
	if name != "" {
		body["_name"] = name
	}
	return Clause{"range": map[string]any{field: body}}
}

// Exists matches documents that have a value for field.
func Exists(field string) Clause {
	return Clause{"exists": map[string]any{"field": field}}
}

// Prefix matches keyword values starting with value.
func Prefix(field, name, value string) Clause {
	body := map[string]any{"value": value}
	if name != "" {
		body["_name"] = name
	}
	return Clause{"prefix": map[string]any{field: body}}
}

// Match runs an analyzed match query against a single field.
func Match(field, name string, query any) Clause {
	body := map[string]any{"query": query}
	if name != "" {
		body["_name"] = name
	}
	return Clause{"match": map[string]any{field: body}}
}

// MatchAll matches every document.
func MatchAll() Clause {
	return Clause{"match_all": map[string]any{}}
}

// BoolOf wraps a compound clause.
func BoolOf(b *Bool) Clause {
	return Clause{"bool": b}
}

// NamedBool wraps a compound clause and tags it with a _name.
// The Bool is serialized immediately; later mutations of b are not reflected.
func NamedBool(name string, b *Bool) Clause {
	body := b.ToDocument()
	if name != "" {
		body["_name"] = name
	}
	return Clause{"bool": body}
}

// MustNotExist matches documents with no value for field.
func MustNotExist(field string) Clause {
	return BoolOf(&Bool{MustNot: []Clause{Exists(field)}})
}

// AnyOf builds a disjunction that requires at least one clause to match.
func AnyOf(clauses ...Clause) Clause {
	one := 1
	return BoolOf(&Bool{Should: clauses, MinimumShouldMatch: &one})
}
