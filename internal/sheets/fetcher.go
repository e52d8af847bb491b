// internal/sheets/fetcher.go
package sheets

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zumaops/stockboard/internal/config"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Fetcher returns the CSV text of one sheet tab identified by gid.
// Implementations are best-effort collaborators: a non-nil error means
// the caller should continue with empty data, not abort the run.
type Fetcher interface {
	FetchSheet(ctx context.Context, gid int) (string, error)
}

// PublishedFetcher reads tabs of a published-to-web Google spreadsheet
// through its CSV export endpoint.
type PublishedFetcher struct {
	baseURL string
	client  *http.Client
}

func NewPublishedFetcher(cfg config.SheetsConfig) *PublishedFetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PublishedFetcher{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				// The publish endpoint sits behind rotating Google
				// frontends whose chains fail verification on some of
				// the office machines this runs on.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

func (f *PublishedFetcher) FetchSheet(ctx context.Context, gid int) (string, error) {
	url := fmt.Sprintf("%s?gid=%d&single=true&output=csv", f.baseURL, gid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch sheet gid=%d: %w", gid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch sheet gid=%d: unexpected status %d", gid, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sheet gid=%d: %w", gid, err)
	}

	text := DecodeText(body)
	if err := validateSheetContent(text); err != nil {
		return "", fmt.Errorf("sheet gid=%d: %w", gid, err)
	}
	return text, nil
}

// validateSheetContent rejects empty bodies and the interstitial page
// Google serves while a published sheet is regenerating.
func validateSheetContent(text string) error {
	if len(text) < 50 {
		return fmt.Errorf("content too short (%d bytes)", len(text))
	}
	head := text
	if len(head) > 50 {
		head = head[:50]
	}
	if strings.Contains(head, "Loading") {
		return fmt.Errorf("sheet still loading")
	}
	return nil
}
