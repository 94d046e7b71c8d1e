package meilisearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Index talks to one Meilisearch server.
type Index struct {
	baseURL string
	client  meilisearch.ServiceManager
}

var _ driven.SearchIndex = (*Index)(nil)

// New creates a client for the server at baseURL. apiKey may be empty.
func New(baseURL, apiKey string) *Index {
	return NewWithHTTPClient(baseURL, apiKey, &http.Client{Timeout: DefaultTimeout})
}

// NewWithHTTPClient creates a client with a custom http.Client.
func NewWithHTTPClient(baseURL, apiKey string, httpClient *http.Client) *Index {
	baseURL = strings.TrimRight(baseURL, "/")
	opts := []meilisearch.Option{meilisearch.WithCustomClient(httpClient)}
	if apiKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(apiKey))
	}
	return &Index{
		baseURL: baseURL,
		client:  meilisearch.New(baseURL, opts...),
	}
}

// UpsertDocuments adds or replaces documents by keyField. The index is
// created on first write.
func (i *Index) UpsertDocuments(ctx context.Context, index string, docs []domain.SearchDocument, keyField string) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := i.client.Index(index).AddDocumentsWithContext(ctx, docs, keyField); err != nil {
		return i.translate("/indexes/"+index+"/documents", err)
	}
	return nil
}

type hit struct {
	domain.SearchDocument
	RankingScore float64 `json:"_rankingScore"`
}

// Search queries one index.
func (i *Index) Search(ctx context.Context, index, query string, limit int) ([]domain.SearchHit, error) {
	path := "/indexes/" + index + "/search"
	resp, err := i.client.Index(index).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:            int64(limit),
		ShowRankingScore: true,
	})
	if err != nil {
		return nil, i.translate(path, err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, &domain.ParseError{URL: i.baseURL + path, Err: err}
		}
		var h hit
		if err := json.Unmarshal(data, &h); err != nil {
			return nil, &domain.ParseError{URL: i.baseURL + path, Snippet: domain.BodySnippet(data), Err: err}
		}
		hits = append(hits, domain.SearchHit{Document: h.SearchDocument, Score: h.RankingScore})
	}
	return hits, nil
}

// Health checks that the server answers.
func (i *Index) Health(ctx context.Context) error {
	if _, err := i.client.HealthWithContext(ctx); err != nil {
		return i.translate("/health", err)
	}
	return nil
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}

// translate maps SDK errors onto the domain error types. A 2xx status on a
// failed call means the response body could not be decoded.
func (i *Index) translate(path string, err error) error {
	url := i.baseURL + path
	var apiErr *meilisearch.Error
	if !errors.As(err, &apiErr) {
		return &domain.TransportError{URL: url, Err: err}
	}
	if apiErr.StatusCode >= 200 && apiErr.StatusCode <= 299 {
		return &domain.ParseError{URL: url, Snippet: domain.BodySnippet([]byte(apiErr.ResponseToString)), Err: err}
	}
	return &domain.TransportError{URL: url, StatusCode: apiErr.StatusCode, Err: err}
}
