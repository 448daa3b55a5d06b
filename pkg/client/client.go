// Package client talks to the storefront HTTP API on behalf of the cart CLI.
package client

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

	"storefront/internal/models"
	"storefront/pkg/cart"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the API. ProductID and Index are set
// when the server rejected a specific checkout line.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	Index     *int   `json:"index,omitempty"`
}

func (e *APIError) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("api error %d: %s (product %s)", e.Status, e.Message, e.ProductID)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a thin JSON client for the /api routes.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL, e.g. http://127.0.0.1:8080/api.
// A nil httpClient uses a client with a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", in, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// Product fetches a product by id or slug.
func (c *Client) Product(ctx context.Context, idOrSlug string) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(idOrSlug), "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LookupPrice implements cart.Catalog with the product's effective price.
func (c *Client) LookupPrice(ctx context.Context, productID string) (decimal.Decimal, error) {
	p, err := c.Product(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.EffectivePrice(), nil
}

// PlaceOrder submits a checkout request. Line rejections come back as *APIError
// with ProductID set.
func (c *Client) PlaceOrder(ctx context.Context, token string, req *cart.Checkout) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", token, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

var _ cart.Catalog = (*Client)(nil)
