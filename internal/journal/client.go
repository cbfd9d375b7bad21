package journal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/patentwatch/internal/pdf"
)

const (
	// DefaultListingTimeout bounds the listing page request.
	DefaultListingTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds a single journal part download.
	DefaultDownloadTimeout = 5 * time.Minute
)

// Client is a rate-limited HTTP client for the journal site.
type Client struct {
	httpClient      *http.Client
	limiter         *rate.Limiter
	listingURL      string
	viewURL         string
	userAgent       string
	listingTimeout  time.Duration
	downloadTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeouts sets the listing and download timeouts. Zero keeps the default.
func WithTimeouts(listing, download time.Duration) ClientOption {
	return func(c *Client) {
		if listing > 0 {
			c.listingTimeout = listing
		}
		if download > 0 {
			c.downloadTimeout = download
		}
	}
}

// NewClient creates a client for the given listing and view endpoints.
func NewClient(listingURL, viewURL string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:      &http.Client{},
		limiter:         rate.NewLimiter(rate.Limit(1), 1),
		listingURL:      listingURL,
		viewURL:         viewURL,
		userAgent:       "Mozilla/5.0",
		listingTimeout:  DefaultListingTimeout,
		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListing retrieves and parses the journal listing page.
func (c *Client) FetchListing(ctx context.Context) ([]Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listingTimeout)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, c.listingURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseListing(resp.Body)
}

// DownloadPart posts fileName to the view endpoint and writes the returned
// PDF to dest. The file only appears at dest once it has been fully written
// and validated.
func (c *Client) DownloadPart(ctx context.Context, fileName, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	form := url.Values{"FileName": {fileName}}
	resp, err := c.do(ctx, http.MethodPost, c.viewURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if _, err := pdf.Validate(tmpPath); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("moving download into place: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
	}
	return resp, nil
}

// PartPath returns where a journal part is stored under dir.
func PartPath(dir, journalID, part string) string {
	return filepath.Join(dir, journalID+"_"+part+".pdf")
}
