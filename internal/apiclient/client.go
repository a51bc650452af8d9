package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/MuhammadMagdy7/money-transfer/internal/domain"
	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

const (
	accountsPath = "/api/accounts/"
	maxErrorBody = 64 << 10
)

// Client talks to the accounts backend. It does not retry.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetAccount handles GET /api/accounts/{id}
func (c *Client) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var acc domain.Account
	path := accountsPath + url.PathEscape(id)
	if err := c.do(ctx, "get_account", http.MethodGet, path, nil, nil, "", &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// SearchAccounts handles GET /api/accounts/?search={q}&ordering=name
func (c *Client) SearchAccounts(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var resp struct {
		Results []domain.SearchResult `json:"results"`
	}
	q := domain.ListFilter{Search: query, Ordering: "name"}.Query()
	if err := c.do(ctx, "search_accounts", http.MethodGet, accountsPath, q, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []domain.SearchResult{}
	}
	return resp.Results, nil
}

// ListAccounts handles GET /api/accounts/?page={n}
func (c *Client) ListAccounts(ctx context.Context, filter domain.ListFilter) (*domain.AccountPage, error) {
	var page domain.AccountPage
	if err := c.do(ctx, "list_accounts", http.MethodGet, accountsPath, filter.Query(), nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Transfer handles POST /api/accounts/transfer/
func (c *Client) Transfer(ctx context.Context, req domain.TransferRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}
	return c.do(ctx, "transfer", http.MethodPost, accountsPath+"transfer/", nil,
		bytes.NewReader(body), "application/json", nil)
}

// ImportCSV handles POST /api/accounts/import_csv/ with the file in the
// multipart field "file".
func (c *Client) ImportCSV(ctx context.Context, filename string, content io.Reader) (*domain.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var result domain.ImportResult
	if err := c.do(ctx, "import_csv", http.MethodPost, accountsPath+"import_csv/", nil,
		&buf, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteAll handles DELETE /api/accounts/delete_all/
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, "delete_all", http.MethodDelete, accountsPath+"delete_all/", nil, nil, "", nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) (err error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	ctx, span := telemetry.Tracer().Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", u.String()),
		),
	)
	defer span.End()

	start := time.Now()
	status := "error"
	defer func() {
		telemetry.BackendRequestsTotal.WithLabelValues(op, status).Inc()
		telemetry.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    decodeErrorBody(resp.StatusCode, data),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}
