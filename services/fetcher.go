// ABOUTME: Single-attempt document downloader
// ABOUTME: Attaches the records API bearer token only for the trusted storage domain

package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DocumentFetcher downloads raw document bytes.
type DocumentFetcher struct {
	tokens        *TokenManager
	trustedDomain string
	client        *http.Client
}

// NewDocumentFetcher creates a fetcher. URLs whose host is trustedDomain or one
// of its subdomains get an Authorization header.
func NewDocumentFetcher(tokens *TokenManager, trustedDomain string) *DocumentFetcher {
	return &DocumentFetcher{
		tokens:        tokens,
		trustedDomain: strings.ToLower(trustedDomain),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetHTTPClient allows overriding the HTTP client (useful for testing)
func (f *DocumentFetcher) SetHTTPClient(client *http.Client) {
	f.client = client
}

// Fetch downloads rawURL once. Non-2xx responses become *DownloadError.
func (f *DocumentFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	if f.isTrusted(req.URL) {
		auth, err := f.tokens.AuthHeader(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", auth)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return data, nil
}

func (f *DocumentFetcher) isTrusted(u *url.URL) bool {
	if f.trustedDomain == "" || u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == f.trustedDomain || strings.HasSuffix(host, "."+f.trustedDomain)
}
