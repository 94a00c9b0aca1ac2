package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ComplianceQueue/internal/domain"
	"ComplianceQueue/internal/ports"
)

const scrapePath = "/scrape_compliance_artifact"

// Client talks to the external service that scrapes compliance content and
// persists it to the knowledge base.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ ports.ScrapeClient = (*Client)(nil)

// NewClient creates a reusable HTTP client for the given service base URL.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: 90 * time.Second},
	}
}

// Scrape submits one artifact and returns the service's response payload.
// A declining response surfaces as *domain.ScrapeRejectedError carrying the
// service's error message; transport failures are returned as-is.
func (c *Client) Scrape(ctx context.Context, req ports.ScrapeRequest) (json.RawMessage, error) {
	payload := map[string]any{
		"certification_name": req.CertificationName,
		"limit":              req.Limit,
		"save_to_kb":         req.SaveToKB,
	}
	if len(req.Domains) > 0 {
		payload["domain"] = req.Domains
	} else {
		payload["domain"] = nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+scrapePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call scrape service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read scrape response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &domain.ScrapeRejectedError{Message: rejectMessage(raw, resp.Status)}
	}

	if len(raw) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// rejectMessage prefers the error field of the response body and falls back
// to the HTTP status line.
func rejectMessage(raw []byte, status string) string {
	var decoded struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != "" {
		return decoded.Error
	}
	return fmt.Sprintf("scrape service returned %s", status)
}
