package formclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/httpclient"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	submitPathPrefix = "/api/v1/leads/"
	optionsPath      = "/api/v1/leads/options"

	// maxResponseSize caps how much of a response body is decoded
	maxResponseSize = 64 << 10
)

// Transport carries a flat payload to the submission endpoint of a form
type Transport interface {
	Submit(ctx context.Context, variant models.FormVariant, payload models.Payload) (*models.SubmissionResult, error)
}

// TransportError reports a response the client cannot interpret as a
// SubmissionResult: an unexpected status or an undecodable body.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission transport failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submission transport failed: unexpected status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPTransport posts JSON payloads to the leads API
type HTTPTransport struct {
	baseURL string
	client  httpclient.Client
}

// NewHTTPTransport creates a transport for the API at baseURL. A nil client
// gets a standard client; the controller bounds each call with its own timeout.
func NewHTTPTransport(baseURL string, client httpclient.Client) *HTTPTransport {
	if client == nil {
		client = httpclient.NewStandardClient()
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Submit posts payload to the variant's endpoint. Responses with a
// SubmissionResult body (200, 400, 403, 503) are decoded and returned without
// error even when the submission failed.
func (t *HTTPTransport) Submit(ctx context.Context, variant models.FormVariant, payload models.Payload) (*models.SubmissionResult, error) {
	start := time.Now()
	target := t.baseURL + submitPathPrefix + string(variant)

	operation := "submit_" + string(variant)

	resp, err := httpclient.PostJSON(ctx, t.client, target, payload.Clone())
	if err != nil {
		logger.LogAPICall(ctx, "leads_api", operation, "error", time.Since(start).Seconds(), zap.Error(err))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	logger.LogAPICall(ctx, "leads_api", operation, "success", time.Since(start).Seconds(),
		zap.Int("status_code", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest, http.StatusForbidden, http.StatusServiceUnavailable:
	default:
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	var result models.SubmissionResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&result); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	// A malformed-body rejection decodes as an empty failure
	if !result.Success && result.Message == "" {
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}
	return &result, nil
}

// FetchOptions loads the selector option lists served by the API
func (t *HTTPTransport) FetchOptions(ctx context.Context) (*models.LeadOptionsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+optionsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	var options models.LeadOptionsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&options); err != nil {
		return nil, fmt.Errorf("failed to decode options: %w", err)
	}
	return &options, nil
}
