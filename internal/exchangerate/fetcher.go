// Package exchangerate serves USD-relative currency rates with layered fallbacks.
package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultURL is the exchangerate-api.com endpoint for the USD table.
const DefaultURL = "https://api.exchangerate-api.com/v4/latest/USD"

var errEmptyTable = errors.New("empty rate table")

// Fetcher retrieves a complete USD-relative rate table.
type Fetcher interface {
	FetchRates(ctx context.Context) (map[string]float64, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (map[string]float64, error)

// FetchRates calls f.
func (f FetcherFunc) FetchRates(ctx context.Context) (map[string]float64, error) {
	return f(ctx)
}

// RateFetchError wraps any failure to obtain a usable rate table.
type RateFetchError struct {
	StatusCode int
	Err        error
}

func (e *RateFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rate fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("rate fetch failed: %v", e.Err)
}

func (e *RateFetchError) Unwrap() error { return e.Err }

// HTTPFetcher reads rates from an exchangerate-api style endpoint.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for url. An empty url uses DefaultURL.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchRates implements Fetcher.
func (f *HTTPFetcher) FetchRates(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &RateFetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &RateFetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RateFetchError{StatusCode: resp.StatusCode}
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RateFetchError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(result.Rates) == 0 {
		return nil, &RateFetchError{Err: errEmptyTable}
	}

	rates := make(map[string]float64, len(result.Rates))
	for code, rate := range result.Rates {
		if rate > 0 {
			rates[strings.ToUpper(code)] = rate
		}
	}
	return rates, nil
}
