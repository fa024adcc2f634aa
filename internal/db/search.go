package db

import "encoding/json"

// SearchRequest is a serialized query document addressed to one index.
type SearchRequest struct {
	Index string
	Body  []byte
}

// SearchResult is the decoded response of a search request.
type SearchResult struct {
	Total int
	// TotalRelation is "eq" or "gte" when the engine stopped counting.
	TotalRelation string
	Hits          []SearchHit
}

// SearchHit is a single document hit.
type SearchHit struct {
	ID             string
	Score          float64
	Source         json.RawMessage
	Sort           []any
	Highlight      map[string][]string
	MatchedQueries []string
}
