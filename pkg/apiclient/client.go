// Package apiclient talks to the coffee shop drinks API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/internal/models"
)

const defaultTimeout = 10 * time.Second

// TokenSource supplies the bearer token sent with each request. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	logger     logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(log logger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// New returns a client for the API served at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Drinks  []models.Drink `json:"drinks"`
	Delete  int            `json:"delete"`
	Error   int            `json:"error"`
	Code    string         `json:"code"`
}

// Index returns the greeting served at the API root.
func (c *Client) Index(ctx context.Context) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/", nil, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// Drinks lists drinks in their public short form.
func (c *Client) Drinks(ctx context.Context) ([]models.Drink, error) {
	return c.listDrinks(ctx, "/drinks")
}

// DrinksDetail lists drinks with full recipes. The token must grant
// get:drinks-detail.
func (c *Client) DrinksDetail(ctx context.Context) ([]models.Drink, error) {
	return c.listDrinks(ctx, "/drinks-detail")
}

func (c *Client) listDrinks(ctx context.Context, path string) ([]models.Drink, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	if env.Drinks == nil {
		return []models.Drink{}, nil
	}
	return env.Drinks, nil
}

func (c *Client) CreateDrink(ctx context.Context, d models.Drink) (*models.Drink, error) {
	body := map[string]any{"title": d.Title, "recipe": d.Recipe}
	return c.writeDrink(ctx, http.MethodPost, "/drinks", body)
}

// UpdateDrink patches drink id. Nil fields are left unchanged on the server.
func (c *Client) UpdateDrink(ctx context.Context, id int, title *string, recipe []models.Ingredient) (*models.Drink, error) {
	body := map[string]any{}
	if title != nil {
		body["title"] = *title
	}
	if recipe != nil {
		body["recipe"] = recipe
	}
	return c.writeDrink(ctx, http.MethodPatch, drinkPath(id), body)
}

func (c *Client) DeleteDrink(ctx context.Context, id int) error {
	var env envelope
	return c.do(ctx, http.MethodDelete, drinkPath(id), nil, &env)
}

func (c *Client) writeDrink(ctx context.Context, method, path string, body any) (*models.Drink, error) {
	var env envelope
	if err := c.do(ctx, method, path, body, &env); err != nil {
		return nil, err
	}
	if len(env.Drinks) == 0 {
		return nil, fmt.Errorf("api: %s %s returned no drink", method, path)
	}
	return &env.Drinks[0], nil
}

func drinkPath(id int) string {
	return "/drinks/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Code = env.Code
		apiErr.Message = env.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
