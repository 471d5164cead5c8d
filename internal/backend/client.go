// Package backend talks to the storefront REST API that owns carts, orders
// and the product catalog.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/pkg/httpclient"
)

const serviceName = "storefront-api"

// Client is a typed client for the storefront API. Every call is a single
// round trip through the injected Doer; retries and circuit breaking live
// there.
type Client struct {
	doer    httpclient.Doer
	baseURL string
	logger  *slog.Logger
}

// New creates a Client. baseURL includes the API prefix, e.g.
// http://localhost:5000/api.
func New(doer httpclient.Doer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// messageResponse is the {"message": "..."} body mutations answer with.
type messageResponse struct {
	Message string `json:"message"`
}

// call sends one request and decodes a 2xx body into out (when non-nil).
// Transport failures become *domain.NetworkError and non-2xx answers are
// classified by classify.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, op, req, out)
}

func (c *Client) send(ctx context.Context, op string, req *http.Request, out any) error {
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "storefront api unreachable",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(httpclient.ParseResponseError(resp, serviceName))
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &domain.NetworkError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// classify turns a failed response into the domain taxonomy. The API only
// reports stock problems as a 400 whose message mentions stock.
func classify(rerr *httpclient.ResponseError) error {
	if rerr.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(rerr.Message), "stock") {
		return &domain.StockExceededError{Ceiling: -1, Message: rerr.Message}
	}
	return &domain.ServerError{Status: rerr.Status, Message: rerr.Message}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *domain.ServerError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
