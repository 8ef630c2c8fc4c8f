package api

// LAREK API CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID      = "X-Request-Id"
	headerIdempotencyKey = "Idempotency-Key"

	maxErrorBody = 512
)

type Client struct {
	baseURL    string
	cdnURL     string
	httpClient *http.Client
	validate   *validator.Validate
	retry      func() backoff.BackOff
	logger     *zap.Logger
}

// Product is a catalog record as served by the API. A null price means the
// product cannot be bought.
type Product struct {
	ID          string `json:"id" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Image       string `json:"image"`
	Price       *int64 `json:"price" validate:"omitempty,gte=0"`
	Description string `json:"description"`
}

type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

type OrderRequest struct {
	Payment string   `json:"payment"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Address string   `json:"address"`
	Total   int64    `json:"total"`
	Items   []string `json:"items"`

	// IdempotencyKey is sent as a header so a retried submission of the same
	// checkout is recognised. A fresh key is generated when empty.
	IdempotencyKey string `json:"-"`
}

type OrderResponse struct {
	ID    string `json:"id"`
	Total int64  `json:"total"`
}

// StatusError is returned for any response with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

type Option func(*Client)

// WithTimeout sets the timeout of a single HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryMaxElapsed bounds the total time spent retrying a catalog fetch.
// Zero disables retries.
func WithRetryMaxElapsed(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.retry = func() backoff.BackOff { return &backoff.StopBackOff{} }
			return
		}
		c.retry = func() backoff.BackOff {
			policy := backoff.NewExponentialBackOff()
			policy.MaxElapsedTime = d
			policy.MaxInterval = 15 * time.Second
			return policy
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL, cdnURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cdnURL:  cdnURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		validate: validator.New(),
		logger:   logger,
	}
	WithRetryMaxElapsed(time.Minute)(c)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetProductList fetches the catalog. Transient failures are retried with
// exponential backoff; records failing validation are dropped.
func (c *Client) GetProductList(ctx context.Context) ([]Product, error) {
	const operation = "api.GetProductList"

	var list ListResponse[Product]
	err := backoff.RetryNotify(
		func() error {
			list = ListResponse[Product]{}
			err := c.doJSON(ctx, http.MethodGet, "/product", nil, nil, &list)
			if err != nil && !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		backoff.WithContext(c.retry(), ctx),
		func(err error, next time.Duration) {
			c.logger.Warn("Catalog request failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	products := make([]Product, 0, len(list.Items))
	for _, p := range list.Items {
		if err := c.validate.Struct(p); err != nil {
			c.logger.Warn("Skipping malformed catalog record",
				zap.String("product_id", p.ID),
				zap.Error(err))
			continue
		}
		products = append(products, c.withCDN(p))
	}

	c.logger.Debug("Catalog loaded",
		zap.Int("total", list.Total),
		zap.Int("accepted", len(products)))

	return products, nil
}

func (c *Client) GetProductItem(ctx context.Context, id string) (Product, error) {
	const operation = "api.GetProductItem"

	var p Product
	if err := c.doJSON(ctx, http.MethodGet, "/product/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return Product{}, fmt.Errorf("%s: %w", operation, err)
	}
	if err := c.validate.Struct(p); err != nil {
		return Product{}, fmt.Errorf("%s: invalid product %q: %w", operation, id, err)
	}

	return c.withCDN(p), nil
}

// SendOrder places an order. It is never retried automatically.
func (c *Client) SendOrder(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	const operation = "api.SendOrder"

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	header := http.Header{}
	header.Set(headerIdempotencyKey, key)

	var resp OrderResponse
	if err := c.doJSON(ctx, http.MethodPost, "/order", req, header, &resp); err != nil {
		return OrderResponse{}, fmt.Errorf("%s: %w", operation, err)
	}

	c.logger.Info("Order placed",
		zap.String("order_id", resp.ID),
		zap.Int64("total", resp.Total),
		zap.Int("items", len(req.Items)))

	return resp, nil
}

func (c *Client) withCDN(p Product) Product {
	if p.Image != "" {
		p.Image = c.cdnURL + p.Image
	}
	return p
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
