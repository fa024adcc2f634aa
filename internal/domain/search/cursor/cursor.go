// Package cursor encodes keyset positions as opaque strings.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/searchkit/internal/domain"
)

// Cursor identifies a position in a sort order. Primary is nil when the
// document has no value for the primary sort field.
type Cursor struct {
	Primary    any
	TieBreaker any
}

// New creates a cursor.
func New(primary, tieBreaker any) Cursor {
	return Cursor{Primary: primary, TieBreaker: tieBreaker}
}

// IsPrimaryNull reports whether the primary value is the null marker.
func (c Cursor) IsPrimaryNull() bool {
	return c.Primary == nil
}

// Encode returns the cursor as unpadded base64url of the JSON pair [primary, tiebreaker].
func (c Cursor) Encode() string {
	data, err := json.Marshal([2]any{c.Primary, c.TieBreaker})
	if err != nil {
		// Values come from decoded JSON sort arrays and always marshal.
		panic(fmt.Sprintf("cursor: encode: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// String implements fmt.Stringer.
func (c Cursor) String() string {
	return c.Encode()
}

// Decode parses an encoded cursor. Numbers are kept as json.Number.
func Decode(s string) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var pair []any
	if err := dec.Decode(&pair); err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	if len(pair) != 2 {
		return Cursor{}, fmt.Errorf("%w: expected 2 values, got %d", domain.ErrInvalidCursor, len(pair))
	}
	if pair[1] == nil {
		return Cursor{}, fmt.Errorf("%w: tie-breaker value is null", domain.ErrInvalidCursor)
	}
	return Cursor{Primary: pair[0], TieBreaker: pair[1]}, nil
}
