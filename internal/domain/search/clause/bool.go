package clause

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bool is a compound clause with four sub-clause lists and an optional
// minimum_should_match count.
type Bool struct {
	Must               []Clause
	MustNot            []Clause
	Should             []Clause
	Filter             []Clause
	MinimumShouldMatch *int
}

// NewBool returns a Bool in its default (all-empty) state.
func NewBool() *Bool {
	b := &Bool{}
	b.Reset()
	return b
}

// Reset restores the default state: empty lists, no minimum_should_match.
func (b *Bool) Reset() {
	b.Must = []Clause{}
	b.MustNot = []Clause{}
	b.Should = []Clause{}
	b.Filter = []Clause{}
	b.MinimumShouldMatch = nil
}

// IsEmpty reports whether no list holds a clause.
func (b *Bool) IsEmpty() bool {
	return len(b.Must) == 0 && len(b.MustNot) == 0 && len(b.Should) == 0 && len(b.Filter) == 0
}

// ToDocument returns the wire form with empty lists and a nil count pruned.
func (b *Bool) ToDocument() map[string]any {
	doc := make(map[string]any, 5)
	if len(b.Must) > 0 {
		doc["must"] = b.Must
	}
	if len(b.MustNot) > 0 {
		doc["must_not"] = b.MustNot
	}
	if len(b.Should) > 0 {
		doc["should"] = b.Should
	}
	if len(b.Filter) > 0 {
		doc["filter"] = b.Filter
	}
	if b.MinimumShouldMatch != nil {
		doc["minimum_should_match"] = *b.MinimumShouldMatch
	}
	return doc
}

// Equal reports structural equality: same clauses in the same order and same count.
func (b *Bool) Equal(other *Bool) bool {
	if b == nil || other == nil {
		return b == other
	}
	left, err := json.Marshal(b)
	if err != nil {
		return false
	}
	right, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// MarshalJSON serializes the pruned document form.
func (b *Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.ToDocument()) //nolint:wrapcheck // plain delegation
}

// UnmarshalJSON parses the wire form. List keys accept a single clause object too.
// Numbers are kept as json.Number so a parsed Bool re-serializes byte-for-byte.
func (b *Bool) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse bool clause: %w", err)
	}

	b.Reset()
	lists := map[string]*[]Clause{
		"must":     &b.Must,
		"must_not": &b.MustNot,
		"should":   &b.Should,
		"filter":   &b.Filter,
	}
	for key, msg := range raw {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		if dst, ok := lists[key]; ok {
			clauses, err := decodeClauses(msg)
			if err != nil {
				return fmt.Errorf("parse bool %s: %w", key, err)
			}
			*dst = clauses
			continue
		}
		if key == "minimum_should_match" {
			var n int
			if err := json.Unmarshal(msg, &n); err != nil {
				return fmt.Errorf("parse bool minimum_should_match: %w", err)
			}
			b.MinimumShouldMatch = &n
			continue
		}
		return fmt.Errorf("parse bool clause: unknown key %q", key)
	}
	return nil
}

// ParseBool parses a serialized Bool.
func ParseBool(data []byte) (*Bool, error) {
	b := NewBool()
	if err := json.Unmarshal(data, b); err != nil {
		return nil, err //nolint:wrapcheck // UnmarshalJSON already wraps
	}
	return b, nil
}

func decodeClauses(msg json.RawMessage) ([]Clause, error) {
	trimmed := bytes.TrimSpace(msg)
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Clause
		if err := dec.Decode(&single); err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		return []Clause{single}, nil
	}

	var list []Clause
	if err := dec.Decode(&list); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	if list == nil {
		list = []Clause{}
	}
	return list, nil
}
