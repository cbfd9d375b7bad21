// Package ipsearch replays the public application search to fetch an
// application's status and document pages.
//
// The search is gated by a CAPTCHA. Start fetches the CAPTCHA image and
// returns a Challenge; the caller shows the image to a person and passes the
// answer to Challenge.Submit, which performs the rest of the form chain.
package ipsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/matsen/patentwatch/internal/patent"
)

const (
	// DefaultTimeout bounds each request of the replay.
	DefaultTimeout = 60 * time.Second

	searchPath    = "PublicationSearch/Search"
	detailsAction = "/PublicSearch/PublicationSearch/PatentDetails"
	statusAction  = "/PublicSearch/PublicationSearch/GetApplicationStatus"
	docsAction    = "/PatentSearch/PatentSearch/ViewDocuments"

	singleResultMarker = "Total Document(s): 1"
	invalidCaptcha     = "Invalid Captcha"
)

// Query identifies the application to look up.
type Query struct {
	ApplicationNo string // as extracted, suffix token allowed
	FilingDate    string // DD/MM/YYYY
}

// Bundle holds the pages retrieved for one application.
type Bundle struct {
	ApplicationNumber string
	StatusPage        []byte
	DocumentsPage     []byte
}

// Client drives search sessions against one site.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    *url.URL
	userAgent  string
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is added if it has
// none.
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

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithInsecureTLS disables certificate verification on the default transport.
func WithInsecureTLS() ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// NewClient creates a client for the search site rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		baseURL:    u,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// Challenge is a session paused for a human to read the CAPTCHA.
type Challenge struct {
	Image       []byte
	ContentType string

	client     *Client
	appNo      string
	filingDate string
}

// Start opens a session and fetches its CAPTCHA.
func (c *Client) Start(ctx context.Context, q Query) (*Challenge, error) {
	appNo := patent.SearchKey(q.ApplicationNo)
	if appNo == "" {
		return nil, fmt.Errorf("empty application number")
	}
	date, err := ReformatFilingDate(q.FilingDate)
	if err != nil {
		return nil, err
	}

	page, err := c.fetch(ctx, http.MethodGet, c.baseURL, nil, "")
	if err != nil {
		return nil, err
	}
	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	src, ok := doc.Find("img#Captcha").First().Attr("src")
	if !ok || src == "" {
		return nil, &PageError{Stage: "captcha", Page: page, Err: fmt.Errorf("no CAPTCHA image: %w", ErrUnexpectedPage)}
	}
	imgURL, err := c.baseURL.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing CAPTCHA URL: %w", err)
	}

	resp, err := c.do(ctx, http.MethodGet, imgURL, nil, c.baseURL.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	return &Challenge{
		Image:       img,
		ContentType: resp.Header.Get("Content-Type"),
		client:      c,
		appNo:       appNo,
		filingDate:  date,
	}, nil
}

// Submit answers the CAPTCHA and replays the form chain from the result list
// through to the documents page.
func (ch *Challenge) Submit(ctx context.Context, answer string) (*Bundle, error) {
	c := ch.client
	searchURL := c.baseURL.ResolveReference(&url.URL{Path: searchPath})

	form := url.Values{}
	form.Add("Published", "true")
	form.Add("Published", "false")
	form.Add("Granted", "false")
	form.Add("DateField", "APD")
	form.Add("FromDate", ch.filingDate)
	form.Add("ToDate", ch.filingDate)
	form.Add("LogicField", "AND")
	form.Add("ItemField1", "AP")
	form.Add("TextField1", ch.appNo)
	form.Add("LogicField1", "AND")
	form.Add("CaptchaText", strings.TrimSpace(answer))
	form.Add("submit", "Search")

	results, err := c.fetch(ctx, http.MethodPost, searchURL, form, c.baseURL.String())
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.Contains(results, []byte(invalidCaptcha)):
		return nil, ErrInvalidCaptcha
	case !bytes.Contains(results, []byte(singleResultMarker)):
		return nil, &PageError{Stage: "search", Page: results, Err: ErrNoResult}
	}

	// Result list: the application number button opens the details page.
	doc, err := parse(results)
	if err != nil {
		return nil, err
	}
	details := findForm(doc, detailsAction)
	connection := inputValue(details, "ConnectionName")
	appButton := details.Find(`button[name="ApplicationNumber"]`).First()
	if details.Length() == 0 || connection == "" || appButton.Length() == 0 {
		return nil, unexpected("search", results, "details form")
	}
	detailsURL, err := c.action(details)
	if err != nil {
		return nil, err
	}
	detailsPage, err := c.fetch(ctx, http.MethodPost, detailsURL, url.Values{
		"ConnectionName":    {connection},
		"ApplicationNumber": {strings.TrimSpace(appButton.AttrOr("value", ""))},
	}, searchURL.String())
	if err != nil {
		return nil, err
	}

	// Details page: request the application status.
	doc, err = parse(detailsPage)
	if err != nil {
		return nil, err
	}
	status := findForm(doc, statusAction)
	statusNo := inputValue(status, "ApplicationNumber")
	if status.Length() == 0 || statusNo == "" {
		return nil, unexpected("details", detailsPage, "status form")
	}
	statusURL, err := c.action(status)
	if err != nil {
		return nil, err
	}
	redirectPage, err := c.fetch(ctx, http.MethodPost, statusURL, url.Values{
		"ApplicationNumber": {statusNo},
		"submit":            {"View Application Status"},
	}, detailsURL.String())
	if err != nil {
		return nil, err
	}

	// The status response is a page that auto-submits a form with a one-time
	// token; submit it directly.
	doc, err = parse(redirectPage)
	if err != nil {
		return nil, err
	}
	redirect := doc.Find(`form[name="form"]`).First()
	if redirect.Length() == 0 {
		return nil, unexpected("status", redirectPage, "redirect form")
	}
	redirectURL, err := c.action(redirect)
	if err != nil {
		return nil, err
	}
	statusPage, err := c.fetch(ctx, http.MethodPost, redirectURL, url.Values{
		"AppNumber": {inputValue(redirect, "AppNumber")},
		"OTP":       {inputValue(redirect, "OTP")},
	}, statusURL.String())
	if err != nil {
		return nil, err
	}

	// Real status page: open the documents list.
	doc, err = parse(statusPage)
	if err != nil {
		return nil, err
	}
	docsForm := findForm(doc, docsAction)
	docsNo := inputValue(docsForm, "APPLICATION_NUMBER")
	if docsForm.Length() == 0 || docsNo == "" {
		return nil, unexpected("redirect", statusPage, "documents form")
	}
	docsURL, err := c.action(docsForm)
	if err != nil {
		return nil, err
	}
	docsPage, err := c.fetch(ctx, http.MethodPost, docsURL, url.Values{
		"APPLICATION_NUMBER": {docsNo},
		"SubmitAction":       {"View Documents"},
	}, redirectURL.String())
	if err != nil {
		return nil, err
	}

	return &Bundle{
		ApplicationNumber: ch.appNo,
		StatusPage:        statusPage,
		DocumentsPage:     docsPage,
	}, nil
}

// ReformatFilingDate converts DD/MM/YYYY, as printed in the journal, to the
// MM/DD/YYYY the search form expects.
func ReformatFilingDate(date string) (string, error) {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("filing date %q is not DD/MM/YYYY: %w", date, err)
	}
	return t.Format("01/02/2006"), nil
}

func (c *Client) fetch(ctx context.Context, method string, target *url.URL, form url.Values, referer string) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	resp, err := c.do(ctx, method, target, body, referer)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body io.Reader, referer string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: target.String()}
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (c *Client) action(form *goquery.Selection) (*url.URL, error) {
	u, err := c.baseURL.Parse(form.AttrOr("action", ""))
	if err != nil {
		return nil, fmt.Errorf("parsing form action: %w", err)
	}
	return u, nil
}

func parse(page []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return doc, nil
}

func findForm(doc *goquery.Document, action string) *goquery.Selection {
	return doc.Find(fmt.Sprintf(`form[action="%s"]`, action)).First()
}

func inputValue(form *goquery.Selection, name string) string {
	return strings.TrimSpace(form.Find(fmt.Sprintf(`input[name="%s"]`, name)).First().AttrOr("value", ""))
}

func unexpected(stage string, page []byte, missing string) error {
	return &PageError{Stage: stage, Page: page, Err: fmt.Errorf("missing %s: %w", missing, ErrUnexpectedPage)}
}
