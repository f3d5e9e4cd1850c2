package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

const (
	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps a page body (10MB); the remote pages at 200
	// records so anything larger is a malfunctioning endpoint.
	MaxResponseSize = 10 * 1024 * 1024

	defaultMaxRetries = 4

	userAgent = "alfa-sync/1.0"
)

// modifiedSinceLayout is the timestamp format the remote expects in the
// If-Modified-Since header.
const modifiedSinceLayout = "2006-01-02T15:04:05-07:00"

// kindPaths maps record kinds to remote collection paths.
var kindPaths = map[models.RecordKind]string{
	models.KindCandidates: "Leads",
	models.KindInterviews: "Events",
	models.KindTasks:      "Tasks",
	models.KindNotes:      "Notes",
	models.KindEmails:     "Emails",
}

// envelope is the remote API's page response shape.
type envelope struct {
	Data []json.RawMessage `json:"data"`
	Info struct {
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

// HTTPSource is a RecordSource over the remote CRM's JSON API.
type HTTPSource struct {
	baseURL    string
	client     *http.Client
	tokens     TokenProvider
	maxRetries uint
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithMaxRetries overrides the per-page retry budget for transient errors.
func WithMaxRetries(n uint) HTTPOption {
	return func(s *HTTPSource) {
		s.maxRetries = n
	}
}

// NewHTTPSource creates a RecordSource against the given base URL.
func NewHTTPSource(baseURL string, tokens TokenProvider, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchPage fetches one page of records, retrying transient network and 5xx
// failures with exponential backoff. Auth and client errors are not retried.
func (s *HTTPSource) FetchPage(
	ctx context.Context,
	kind models.RecordKind,
	page, perPage int,
	modifiedSince *time.Time,
) (*Page, error) {
	path, ok := kindPaths[kind]
	if !ok {
		return nil, fmt.Errorf("no remote collection for kind %q", kind)
	}

	operation := func() (*Page, error) {
		return s.fetchOnce(ctx, path, page, perPage, modifiedSince)
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.maxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching %s page %d: %w", kind, page, err)
	}
	return result, nil
}

func (s *HTTPSource) fetchOnce(
	ctx context.Context,
	path string,
	page, perPage int,
	modifiedSince *time.Time,
) (*Page, error) {
	endpoint, err := url.Parse(s.baseURL + "/" + path)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid base URL: %w", err))
	}
	q := endpoint.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if modifiedSince != nil {
		req.Header.Set("If-Modified-Since", modifiedSince.UTC().Format(modifiedSinceLayout))
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("resolving auth token: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotModified:
		// The remote signals an empty page this way rather than with an
		// empty data array.
		return &Page{}, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("remote returned %s", resp.Status)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("remote returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds %d bytes", MaxResponseSize))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding page: %w", err))
	}

	return &Page{Records: env.Data, HasMore: env.Info.MoreRecords}, nil
}
