package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production Finnhub REST endpoint.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// ErrInvalidQuote marks a response whose price cannot be traded on, such as
// an unknown symbol quoted at zero.
var ErrInvalidQuote = errors.New("quotes: invalid quote")

// Client is a Finnhub REST API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Finnhub client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Quote fetches the current price snapshot for symbol. A non-positive
// current price is rejected with ErrInvalidQuote.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	if err := c.get(ctx, "/quote", symbol, &q); err != nil {
		return Quote{}, err
	}
	if q.Current <= 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrInvalidQuote, symbol)
	}
	return q, nil
}

// Profile fetches the company profile for symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (Profile, error) {
	var p Profile
	if err := c.get(ctx, "/stock/profile2", symbol, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, path, symbol string, out any) error {
	u := fmt.Sprintf("%s%s?symbol=%s&token=%s",
		c.baseURL, path, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
