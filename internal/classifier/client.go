package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chaitenyachand/ProjectIQ/internal/cache"
	"github.com/chaitenyachand/ProjectIQ/internal/model"
	"github.com/chaitenyachand/ProjectIQ/internal/util"
)

// ErrUnavailable signals that the relevance classifier cannot be
// reached. Callers fail open on this error: every source passes
// through fully relevant rather than blocking the pipeline.
var ErrUnavailable = errors.New("relevance classifier unavailable")

// Prediction is the per-text classifier output
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	IsRelevant bool    `json:"is_relevant"`
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []Prediction `json:"results"`
}

// Client talks to the relevance classifier service
type Client struct {
	baseURL      string
	httpClient   *http.Client
	cache        cache.Cache
	cacheTTL     time.Duration
	maxBodyBytes int64
}

// NewClient creates a classifier client. An empty base URL yields a
// client whose Classify always returns ErrUnavailable, which callers
// treat as the fail-open path.
func NewClient(cfg model.ClassifierConfig, llmCfg model.LLMConfig) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   util.NewHTTPClient(cfg.Timeout, llmCfg.HTTPProxy, llmCfg.HTTPSProxy, llmCfg.NoProxy),
		cache:        cache.NewMemoryCache(cfg.CacheTTL, cfg.CacheCleanup),
		cacheTTL:     cfg.CacheTTL,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Classify scores a batch of texts. Results come back in input order.
// Any transport or decode failure maps to ErrUnavailable.
func (c *Client) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	if c.baseURL == "" {
		return nil, ErrUnavailable
	}
	if len(texts) == 0 {
		return nil, nil
	}

	key := cache.Key(strings.Join(texts, "\x1e"))
	if cached, found := c.cache.Get(key); found {
		var preds []Prediction
		if err := json.Unmarshal(cached, &preds); err == nil {
			return preds, nil
		}
	}

	body, err := json.Marshal(classifyRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	// Bounded read: never trust the service to cap its own response
	maxBytes := c.maxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	if len(parsed.Results) != len(texts) {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrUnavailable, len(parsed.Results), len(texts))
	}

	if encoded, err := json.Marshal(parsed.Results); err == nil {
		_ = c.cache.Set(key, encoded, c.cacheTTL)
	}

	return parsed.Results, nil
}
