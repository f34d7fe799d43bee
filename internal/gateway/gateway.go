// Package gateway is the HTTP client for the collection API. Each method
// issues exactly one request.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
	"github.com/sitelangsirat/deswita-backend/internal/modules/media"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string { return "API Error: " + e.Status }

// Client talks to the API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, endpoint string, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/"+endpoint, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s /api/%s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s /api/%s: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, in, out any) error {
	if in == nil {
		return c.do(ctx, method, endpoint, "", nil, out)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, endpoint, "application/json", bytes.NewReader(body), out)
}

func getAll[T any](ctx context.Context, c *Client, coll content.Collection) ([]T, error) {
	var items []T
	if err := c.request(ctx, http.MethodGet, string(coll), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func send[T any](ctx context.Context, c *Client, method string, coll content.Collection, item T) (T, error) {
	var stored T
	err := c.request(ctx, method, string(coll), item, &stored)
	return stored, err
}

func (c *Client) remove(ctx context.Context, coll content.Collection, id string) error {
	return c.request(ctx, http.MethodDelete, string(coll)+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetAllProducts(ctx context.Context) ([]content.Product, error) {
	return getAll[content.Product](ctx, c, content.Products)
}

func (c *Client) AddProduct(ctx context.Context, p content.Product) (content.Product, error) {
	return send(ctx, c, http.MethodPost, content.Products, p)
}

func (c *Client) UpdateProduct(ctx context.Context, p content.Product) (content.Product, error) {
	return send(ctx, c, http.MethodPut, content.Products, p)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.remove(ctx, content.Products, id)
}

func (c *Client) GetAllArticles(ctx context.Context) ([]content.Article, error) {
	return getAll[content.Article](ctx, c, content.Articles)
}

func (c *Client) AddArticle(ctx context.Context, a content.Article) (content.Article, error) {
	return send(ctx, c, http.MethodPost, content.Articles, a)
}

func (c *Client) UpdateArticle(ctx context.Context, a content.Article) (content.Article, error) {
	return send(ctx, c, http.MethodPut, content.Articles, a)
}

func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	return c.remove(ctx, content.Articles, id)
}

func (c *Client) GetAllEvents(ctx context.Context) ([]content.Event, error) {
	return getAll[content.Event](ctx, c, content.Events)
}

func (c *Client) AddEvent(ctx context.Context, e content.Event) (content.Event, error) {
	return send(ctx, c, http.MethodPost, content.Events, e)
}

func (c *Client) UpdateEvent(ctx context.Context, e content.Event) (content.Event, error) {
	return send(ctx, c, http.MethodPut, content.Events, e)
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.remove(ctx, content.Events, id)
}

// Stats returns the record count of every collection.
func (c *Client) Stats(ctx context.Context) (map[content.Collection]int, error) {
	var stats map[content.Collection]int
	err := c.request(ctx, http.MethodGet, "stats", nil, &stats)
	return stats, err
}

// Login exchanges admin credentials for a token and keeps it for later
// requests.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.request(ctx, http.MethodPost, "login", in, &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// Upload sends an image and returns its /uploads/ path. Files over
// media.MaxUploadBytes are refused before any request is made.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, media.MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > media.MaxUploadBytes {
		return "", media.ErrTooLarge
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "upload", mw.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
