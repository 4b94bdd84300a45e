package webfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/openscribe/agentkit/internal/utils"
	"github.com/openscribe/agentkit/providers/tool"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value.
	DefaultUserAgent = "agentkit-webfetch/1.0"
	// MaxBodySize is the maximum response body size (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// DialTimeout is the maximum time to wait for a TCP connection.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the maximum time to wait for the TLS handshake.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is the maximum time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second

	maxRedirects = 10
)

// Input holds the parameters passed to the web fetch tool by the language
// model. URL is the only required field.
type Input struct {
	// URL is the page to fetch; partial URLs like "example.com" are accepted.
	URL string `json:"url" description:"The URL of the web page to fetch (partial URLs like 'example.com' are accepted)"`

	// TimeoutSeconds overrides the default request timeout.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" description:"Request timeout in seconds (default 30, max 300)"`

	// IncludeHTML includes the raw HTML alongside the Markdown conversion.
	IncludeHTML bool `json:"include_html,omitempty" description:"When true, include the raw HTML content alongside the Markdown"`
}

// Output holds the result produced by [Fetch]. URL reflects the final
// destination after all HTTP redirects. HTML is only populated when
// [Input.IncludeHTML] is true.
type Output struct {
	URL      string `json:"url" description:"The final URL after following all redirects"`
	Markdown string `json:"markdown" description:"The page content converted to Markdown"`
	HTML     string `json:"html,omitempty" description:"The raw HTML content (only when include_html is true)"`
}

// New returns a [tool.Tool] that fetches web pages and converts their HTML
// content to Markdown.
//
// Example:
//
//	catalog := tool.NewCatalog(webfetch.New())
func New() *tool.Tool[Input, Output] {
	return tool.New(
		"web_fetch",
		"Fetches a web page and converts its HTML content to Markdown. Supports HTTP and HTTPS, normalises partial URLs, follows redirects, and returns the final URL plus clean Markdown content.",
		Fetch,
	)
}

// Fetch retrieves the web page at req.URL and returns its content as
// Markdown.
//
// Partial URLs (e.g. "example.com") are normalised by prepending "https://".
// Up to ten redirects are followed; the final URL after all redirects is
// returned in [Output.URL]. The response body is capped at [MaxBodySize]
// bytes; reading runs in a goroutine so cancellation is honoured even during
// slow reads.
func Fetch(ctx context.Context, req Input) (Output, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return Output{}, fmt.Errorf("URL cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	timeout := DefaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return Output{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", DefaultUserAgent)

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			ForceAttemptHTTP2:     true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (>%d)", maxRedirects)
			}
			return nil
		},
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if fetchCtx.Err() != nil {
			return Output{}, fmt.Errorf("request timeout or cancelled: %w", err)
		}
		return Output{}, fmt.Errorf("fetching URL: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Output{}, fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}

	// Read in a goroutine so a slow body cannot outlive the context.
	type readResult struct {
		data []byte
		err  error
	}
	readChan := make(chan readResult, 1)
	go func() {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		readChan <- readResult{data: data, err: readErr}
	}()

	var htmlBytes []byte
	select {
	case <-fetchCtx.Done():
		return Output{}, fmt.Errorf("timeout while reading response body: %w", fetchCtx.Err())
	case result := <-readChan:
		if result.err != nil {
			return Output{}, fmt.Errorf("reading response body: %w", result.err)
		}
		htmlBytes = result.data
	}

	if len(htmlBytes) == MaxBodySize {
		return Output{}, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}

	markdown, err := htmltomarkdown.ConvertString(string(htmlBytes))
	if err != nil {
		return Output{}, fmt.Errorf("converting HTML to Markdown: %w", err)
	}

	output := Output{
		URL:      resp.Request.URL.String(),
		Markdown: markdown,
	}
	if req.IncludeHTML {
		output.HTML = string(htmlBytes)
	}
	return output, nil
}
