package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/gopiorder/internal/config"
)

const adminAPIVersion = "2024-01"

// Client is a Shopify Admin GraphQL client
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Shopify GraphQL client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     BaseURL(cfg.ShopDomain),
		accessToken: cfg.AccessToken,
		httpClient: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
		},
		logger: logger,
	}
}

// BaseURL normalizes a shop domain into a URL without a trailing slash.
// Bare domains get https; an explicit http:// scheme is kept.
func BaseURL(shopDomain string) string {
	shopDomain = strings.TrimSuffix(strings.TrimSpace(shopDomain), "/")
	if strings.HasPrefix(shopDomain, "http://") || strings.HasPrefix(shopDomain, "https://") {
		return shopDomain
	}
	return "https://" + shopDomain
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GraphQLRequest represents a GraphQL request
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a GraphQL response
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error. Path mixes field names and list
// indexes.
type GraphQLError struct {
	Message    string        `json:"message"`
	Path       []interface{} `json:"path,omitempty"`
	Extensions struct {
		Code string `json:"code,omitempty"`
	} `json:"extensions,omitempty"`
}

// throttledCode is how Shopify reports an exhausted query-cost bucket. The
// HTTP status is still 200.
const throttledCode = "THROTTLED"

// maxLoggedBody bounds how much of an unexpected response body is kept
const maxLoggedBody = 512

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxLoggedBody {
		return s[:maxLoggedBody] + "..."
	}
	return s
}

// Execute executes a GraphQL query/mutation
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}) (*GraphQLResponse, error) {
	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, adminAPIVersion)

	jsonData, err := json.Marshal(GraphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The raw body is not shopper-facing; keep it for logs only
		raw := truncateBody(body)
		c.logger.Warn("Shopify admin API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", raw),
		)
		return nil, &APIError{Status: resp.StatusCode, Description: raw}
	}

	var graphQLResp GraphQLResponse
	if err := json.Unmarshal(body, &graphQLResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(graphQLResp.Errors) > 0 {
		for _, e := range graphQLResp.Errors {
			if e.Extensions.Code == throttledCode {
				c.logger.Warn("Shopify admin API throttled", zap.String("message", e.Message))
				return nil, &APIError{Status: http.StatusTooManyRequests, Description: e.Message}
			}
		}
		return nil, fmt.Errorf("graphQL errors: %v", graphQLResp.Errors)
	}

	return &graphQLResp, nil
}
