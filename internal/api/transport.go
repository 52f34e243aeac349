// Package api provides low-level HTTP transport for Fulcrum API calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fulcrumapi/go-fulcrum/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// ErrRedirectLimit is returned when the server redirects more than once for a
// single logical call.
var ErrRedirectLimit = errors.New("redirect limit exceeded")

// Transport handles HTTP communication with the Fulcrum API.
type Transport struct {
	BaseURL     *url.URL
	HTTPClient  *http.Client
	Credentials *auth.Credentials
	UserAgent   string
	Logger      *slog.Logger

	// streamClient never follows redirects on its own; DoStream resolves
	// a single hop manually so auth is carried forward.
	streamClient *http.Client
}

// NewTransport creates a Transport with the given configuration.
func NewTransport(baseURL string, creds *auth.Credentials, httpClient *http.Client) (*Transport, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials must be provided")
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	streamClient := &http.Client{
		Transport: httpClient.Transport,
		Jar:       httpClient.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Transport{
		BaseURL:      u,
		HTTPClient:   httpClient,
		Credentials:  creds,
		UserAgent:    "go-fulcrum/1.0",
		Logger:       slog.New(slog.DiscardHandler),
		streamClient: streamClient,
	}, nil
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header

	// RawBody, when set, is sent as-is with ContentType instead of a
	// JSON-encoded Body. Used for multipart uploads.
	RawBody     io.Reader
	ContentType string
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the buffered response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	t.Logger.DebugContext(ctx, "api request",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start))

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

// DoJSON executes a request and unmarshals the JSON response into result.
// It only attempts to unmarshal on success status codes (< 400).
func (t *Transport) DoJSON(ctx context.Context, req *Request, result any) (*Response, error) {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	// Only unmarshal on success status codes
	if result != nil && len(resp.Body) > 0 && resp.StatusCode < 400 {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return resp, fmt.Errorf("unmarshaling response: %w", err)
		}
	}

	return resp, nil
}

// redirectStatus reports whether code is a redirect the stream path follows.
func redirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

// DoStream executes a request and returns the raw response without buffering
// the body. The caller owns the response body and must close it. A single
// redirect hop is resolved here, re-issuing the request with auth preserved;
// a second redirect fails with ErrRedirectLimit. Status handling is left to
// the caller.
func (t *Transport) DoStream(ctx context.Context, req *Request) (*http.Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	httpResp, err := t.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if redirectStatus(httpResp.StatusCode) {
		location := httpResp.Header.Get("Location")
		drainAndClose(httpResp.Body)
		if location == "" {
			return nil, fmt.Errorf("redirect response without location header")
		}

		target, err := httpResp.Request.URL.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect location %q: %w", location, err)
		}

		redirectReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating redirect request: %w", err)
		}
		redirectReq.Header = httpReq.Header.Clone()

		httpResp, err = t.streamClient.Do(redirectReq)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if redirectStatus(httpResp.StatusCode) {
			drainAndClose(httpResp.Body)
			return nil, ErrRedirectLimit
		}
	}

	t.Logger.DebugContext(ctx, "api stream request",
		"method", req.Method,
		"path", req.Path,
		"status", httpResp.StatusCode,
		"duration", time.Since(start))

	return httpResp, nil
}

// drainAndClose discards a bounded amount of an unwanted response body so the
// underlying connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, defaultMaxBodySize))
	_ = body.Close()
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.BaseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	contentType := ""
	switch {
	case req.RawBody != nil:
		bodyReader = req.RawBody
		contentType = req.ContentType
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set default headers
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)

	// Apply authentication
	t.Credentials.Apply(httpReq)

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}
