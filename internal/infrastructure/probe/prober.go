package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ComplianceQueue/internal/ports"
)

// Prober fetches an artifact's source page and extracts a display-name
// candidate from its markup.
type Prober struct {
	client *http.Client
}

var _ ports.NameProber = (*Prober)(nil)

// NewProber wires an HTTP client; a nil client gets a sane default.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Prober{client: client}
}

// SuggestName returns the page title of the URL, preferring og:title when
// the document carries one.
func (p *Prober) SuggestName(ctx context.Context, pageURL string) (string, error) {
	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	if title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			return trimmed, nil
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return "", fmt.Errorf("no title found at %s", pageURL)
	}

	return title, nil
}

func (p *Prober) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ComplianceQueue/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}
