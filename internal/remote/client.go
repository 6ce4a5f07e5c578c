// Package remote is the JSON/HTTP client for the canonical remote service.
// The terminal talks to it only from the sync path.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RemoteProduct is the wire shape of a product on the remote side. Prices
// travel as float dollars; local storage uses cents.
type RemoteProduct struct {
	ID            int64   `json:"id,omitempty"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
}

type RemoteOrder struct {
	ID           int64   `json:"id,omitempty"`
	OrderNumber  string  `json:"orderNumber"`
	TotalAmount  float64 `json:"totalAmount"`
	CustomerName string  `json:"customerName"`
	Status       string  `json:"status"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client whose every call is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health reports whether the remote service answered 2xx on /health. Any
// transport error or non-2xx counts as offline, never as an error.
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) ListProducts(ctx context.Context) ([]RemoteProduct, error) {
	var out []RemoteProduct
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, p RemoteProduct) (RemoteProduct, error) {
	p.ID = 0
	var out RemoteProduct
	err := c.do(ctx, http.MethodPost, "/products", p, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, p RemoteProduct) (RemoteProduct, error) {
	var out RemoteProduct
	err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(id, 10), p, &out)
	return out, err
}

func (c *Client) ListOrders(ctx context.Context) ([]RemoteOrder, error) {
	var out []RemoteOrder
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out)
	return out, err
}

func (c *Client) CreateOrder(ctx context.Context, o RemoteOrder) (RemoteOrder, error) {
	o.ID = 0
	var out RemoteOrder
	err := c.do(ctx, http.MethodPost, "/orders", o, &out)
	return out, err
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, o RemoteOrder) (RemoteOrder, error) {
	var out RemoteOrder
	err := c.do(ctx, http.MethodPut, "/orders/"+strconv.FormatInt(id, 10), o, &out)
	return out, err
}
