package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/actuallystonmai/venue-recommender/internal/domain"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

const venueMapping = `{
  "mappings": {
    "properties": {
      "id":               {"type": "keyword"},
      "name":             {"type": "text"},
      "cuisine":          {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "description":      {"type": "text"},
      "signature_dishes": {"type": "text"},
      "ambience":         {"type": "keyword"},
      "location":         {"type": "geo_point"}
    }
  }
}`

// BreakerConfig tunes the circuit breaker in front of the index.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second}
}

// ElasticBackend queries an Elasticsearch index of venues.
type ElasticBackend struct {
	client  *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[[]domain.SearchHit]
}

func NewElasticBackend(client *elasticsearch.Client, index string, cfg BreakerConfig) *ElasticBackend {
	settings := gobreaker.Settings{
		Name:    "search:" + index,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return &ElasticBackend{
		client:  client,
		index:   index,
		breaker: gobreaker.NewCircuitBreaker[[]domain.SearchHit](settings),
	}
}

// BreakerState reports the breaker state for health output.
func (e *ElasticBackend) BreakerState() string {
	return e.breaker.State().String()
}

type venueDoc struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Cuisine         string    `json:"cuisine"`
	Description     string    `json:"description,omitempty"`
	SignatureDishes []string  `json:"signature_dishes,omitempty"`
	Ambience        []string  `json:"ambience,omitempty"`
	Location        *geoPoint `json:"location,omitempty"`
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func docOf(c domain.Candidate) venueDoc {
	doc := venueDoc{
		ID:              c.ID,
		Name:            c.Name,
		Cuisine:         c.Cuisine,
		Description:     c.Description,
		SignatureDishes: c.SignatureDishes,
		Ambience:        c.Ambience,
	}
	if c.HasLocation() {
		doc.Location = &geoPoint{Lat: c.Coordinates.Latitude, Lon: c.Coordinates.Longitude}
	}
	return doc
}

func (e *ElasticBackend) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return e.breaker.Execute(func() ([]domain.SearchHit, error) {
		return e.search(ctx, query, limit)
	})
}

func (e *ElasticBackend) search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "cuisine^2", "signature_dishes^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"signature_dishes": map[string]interface{}{},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", e.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search %s: status %d: %s", e.index, res.StatusCode, string(raw))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source    venueDoc            `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		doc := h.Source
		hits = append(hits, domain.SearchHit{
			ID:       doc.ID,
			Type:     domain.HitRestaurant,
			Name:     doc.Name,
			Subtitle: doc.Cuisine,
			Route:    "/venues/" + doc.ID,
			Cuisine:  doc.Cuisine,
		})
		for _, dish := range h.Highlight["signature_dishes"] {
			name := stripHighlight(dish)
			hits = append(hits, domain.SearchHit{
				ID:       doc.ID + ":" + strings.ToLower(name),
				Type:     domain.HitDish,
				Name:     name,
				Subtitle: doc.Name,
				Route:    "/venues/" + doc.ID,
				Cuisine:  doc.Cuisine,
			})
		}
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func stripHighlight(s string) string {
	return strings.NewReplacer("<em>", "", "</em>", "").Replace(s)
}

// EnsureIndex creates the venue index if it does not exist yet.
func (e *ElasticBackend) EnsureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(venueMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("create index %s: %s", e.index, string(raw))
	}
	return nil
}

// IndexCandidates bulk-indexes candidates, replacing documents with the same
// id.
func (e *ElasticBackend) IndexCandidates(ctx context.Context, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range candidates {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": e.index,
				"_id":    c.ID,
			},
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(docOf(c)); err != nil {
			return fmt.Errorf("encode venue %s: %w", c.ID, err)
		}
	}

	req := esapi.BulkRequest{
		Body:    &buf,
		Refresh: "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("bulk index venues: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index venues: status %d: %s", res.StatusCode, string(raw))
	}
	return nil
}
