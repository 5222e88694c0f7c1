// Package semanticindex implements the embedding index:
// table/column description synthesis, a pluggable embedding backend, and
// cosine-similarity-based relevance search. Grounded on
// original_source/app/services/semantic_indexer.py's SemanticTableIndexer
// (load-or-build-from-cache, 24h staleness horizon), with the HTTP
// collaborator shaped like a gobreaker-wrapped HTTP client.
package semanticindex

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// Embedder turns text into a dense vector. The real system calls out to an
// embedding model; tests and offline operation use the deterministic local
// fallback below.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// RestyEmbedder calls an external embedding HTTP endpoint, guarded by a
// circuit breaker, grounded on common/libraries/go/iaros-core/client.go's
// HTTPClient wrapping pattern.
type RestyEmbedder struct {
	client  *resty.Client
	url     string
	apiKey  string
	breaker *gobreaker.CircuitBreaker
	dims    int
}

// embedRequest/embedResponse are the assumed wire shapes of the external
// embedding endpoint (model name fixed server-side).
type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
}

func NewRestyEmbedder(url, apiKey string, dims int) *RestyEmbedder {
	client := resty.New().SetTimeout(5 * time.Second)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding-api",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
	})
	return &RestyEmbedder{client: client, url: url, apiKey: apiKey, breaker: breaker, dims: dims}
}

func (e *RestyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		var out embedResponse
		resp, err := e.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+e.apiKey).
			SetBody(embedRequest{Text: text}).
			SetResult(&out).
			Post(e.url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode())
		}
		return out.Vector, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float64), nil
}

// LocalFallbackEmbedder produces a deterministic hash-based bag-of-words
// vector, used when no external embedding endpoint is configured. This
// keeps the package fully testable offline, matching 's
// "pluggable" framing for the embedding backend.
type LocalFallbackEmbedder struct {
	Dims int
}

func NewLocalFallbackEmbedder(dims int) *LocalFallbackEmbedder {
	if dims <= 0 {
		dims = 64
	}
	return &LocalFallbackEmbedder{Dims: dims}
}

func (e *LocalFallbackEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.Dims)
	for _, word := range tokenize(text) {
		h := sha256.Sum256([]byte(word))
		for i := 0; i < e.Dims; i++ {
			bit := h[i%len(h)]
			if bit%2 == 0 {
				vec[i] += 1
			} else {
				vec[i] -= 1
			}
		}
	}
	return normalize(vec), nil
}

func tokenize(text string) []string {
	var words []string
	var current []byte
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			current = append(current, byte(r))
		default:
			flush()
		}
	}
	flush()
	return words
}
