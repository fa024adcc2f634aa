package elastic

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"

	"github.com/kailas-cloud/searchkit/internal/db"
)

// decodeError turns an error body into *types.ElasticsearchError.
func decodeError(status int, body io.Reader, index string) error {
	esErr := types.NewElasticsearchError()
	// Error bodies are informational; an undecodable one still reports the status.
	_ = json.NewDecoder(body).Decode(esErr)
	if esErr.Status == 0 {
		esErr.Status = status
	}

	if status == http.StatusNotFound && esErr.ErrorCause.Type == "index_not_found_exception" {
		return fmt.Errorf("%w: %s: %w", db.ErrIndexNotFound, index, esErr)
	}
	return esErr
}

type searchResponse struct {
	Hits struct {
		Total *struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			ID             string              `json:"_id"`
			Score          *float64            `json:"_score"`
			Source         json.RawMessage     `json:"_source"`
			Sort           []any               `json:"sort"`
			Highlight      map[string][]string `json:"highlight"`
			MatchedQueries []string            `json:"matched_queries"`
		} `json:"hits"`
	} `json:"hits"`
}

// decodeResult keeps numbers as json.Number so int64 sort values survive;
// the typed search response decodes them as float64.
func decodeResult(body io.Reader) (*db.SearchResult, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var resp searchResponse
	if err := dec.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response body")
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result := &db.SearchResult{
		Total:         len(resp.Hits.Hits),
		TotalRelation: "eq",
		Hits:          make([]db.SearchHit, 0, len(resp.Hits.Hits)),
	}
	if t := resp.Hits.Total; t != nil {
		result.Total = t.Value
		result.TotalRelation = t.Relation
	}

	for _, h := range resp.Hits.Hits {
		hit := db.SearchHit{
			ID:             h.ID,
			Source:         h.Source,
			Sort:           h.Sort,
			Highlight:      h.Highlight,
			MatchedQueries: h.MatchedQueries,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
