package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"portfolio-updater/observability"
)

// DefaultRequestTimeout bounds every provider request
const DefaultRequestTimeout = 30 * time.Second

var (
	// ErrNoData is returned when a provider answers successfully but carries no record
	ErrNoData = errors.New("no data returned")

	// ErrProviderMessage is returned when a provider reports an error inside a 2xx body
	ErrProviderMessage = errors.New("provider returned an error message")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Service    string
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Service, e.Operation, e.StatusCode)
}

// apiClient performs GET requests against one provider. The api key is sent
// as the apikey parameter when set.
type apiClient struct {
	service    string
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func newAPIClient(service, apiKey, baseURL string, timeout time.Duration) apiClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return apiClient{
		service:    service,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// get issues one GET to baseURL+path with params, and returns the raw body.
// Every failure is logged and counted before it is returned.
func (c *apiClient) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(c.service, operation)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI(c.service, operation)

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fail(operation, "request", fmt.Errorf("failed to create %s request: %w", operation, err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(operation, "transport", fmt.Errorf("failed to fetch %s: %w", operation, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(operation, "http_status", &StatusError{
			Service:    c.service,
			Operation:  operation,
			StatusCode: resp.StatusCode,
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(operation, "transport", fmt.Errorf("failed to read %s response: %w", operation, err))
	}

	return body, nil
}

// getJSON is get followed by a JSON decode into out
func (c *apiClient) getJSON(ctx context.Context, operation, path string, params url.Values, out any) error {
	body, err := c.get(ctx, operation, path, params)
	if err != nil {
		return err
	}
	return c.decode(operation, body, out)
}

func (c *apiClient) decode(operation string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(operation, "decode", fmt.Errorf("failed to decode %s response: %w", operation, err))
	}
	return nil
}

func (c *apiClient) fail(operation, errorType string, err error) error {
	observability.GetMetrics().RecordExternalAPIError(c.service, operation, errorType)
	observability.WithProvider(c.service).Warn("Provider request failed",
		"operation", operation,
		"error_type", errorType,
		"error", err)
	return err
}
