// Package datacontext keeps an in-memory copy of the three collections,
// loaded once from the API and kept in step with it by routing every
// mutation through the gateway first.
package datacontext

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sitelangsirat/deswita-backend/internal/datacontext/seed"
	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
)

// ErrNotReady is returned by mutations issued before Load succeeded.
var ErrNotReady = errors.New("data context is still loading")

// State is the load state of a Context.
type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Gateway is the subset of the API client the context needs.
type Gateway interface {
	GetAllProducts(ctx context.Context) ([]content.Product, error)
	AddProduct(ctx context.Context, p content.Product) (content.Product, error)
	UpdateProduct(ctx context.Context, p content.Product) (content.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	GetAllArticles(ctx context.Context) ([]content.Article, error)
	AddArticle(ctx context.Context, a content.Article) (content.Article, error)
	UpdateArticle(ctx context.Context, a content.Article) (content.Article, error)
	DeleteArticle(ctx context.Context, id string) error

	GetAllEvents(ctx context.Context) ([]content.Event, error)
	AddEvent(ctx context.Context, e content.Event) (content.Event, error)
	UpdateEvent(ctx context.Context, e content.Event) (content.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Context is the client-side cache. It is safe for concurrent use.
type Context struct {
	gw       Gateway
	defaults seed.Dataset
	snapshot string

	mu       sync.RWMutex
	state    State
	products []content.Product
	articles []content.Article
	events   []content.Event
}

// Option configures a Context.
type Option func(*Context)

// WithDefaults replaces the bundled seed dataset.
func WithDefaults(ds seed.Dataset) Option { return func(c *Context) { c.defaults = ds } }

// WithSnapshot makes Load prefer products.json, articles.json and
// events.json from dir over the defaults when seeding.
func WithSnapshot(dir string) Option { return func(c *Context) { c.snapshot = dir } }

// New creates a Context in the Loading state. Call Load before use.
func New(gw Gateway, opts ...Option) (*Context, error) {
	defaults, err := seed.Defaults()
	if err != nil {
		return nil, err
	}
	c := &Context{gw: gw, defaults: defaults}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports whether the context has loaded.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Load fetches every collection, seeding any empty one first. Snapshot
// files are only read for collections that need seeding. On error the
// context stays in Loading; nothing retries.
func (c *Context) Load(ctx context.Context) error {
	products, err := resolve(ctx, c.gw.GetAllProducts, c.gw.AddProduct, c.seedProducts)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	articles, err := resolve(ctx, c.gw.GetAllArticles, c.gw.AddArticle, func() ([]content.Article, error) {
		return seedItems(c.snapshot, "articles.json", c.defaults.Articles)
	})
	if err != nil {
		return fmt.Errorf("load articles: %w", err)
	}
	events, err := resolve(ctx, c.gw.GetAllEvents, c.gw.AddEvent, func() ([]content.Event, error) {
		return seedItems(c.snapshot, "events.json", c.defaults.Events)
	})
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	c.mu.Lock()
	c.products, c.articles, c.events = products, articles, events
	c.state = Ready
	c.mu.Unlock()
	return nil
}

// Reload refetches every collection, discarding the cache.
func (c *Context) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// resolve returns the backend list, or pushes every seed item through add
// when the backend list is empty and adopts the seed as the list.
func resolve[T any](
	ctx context.Context,
	list func(context.Context) ([]T, error),
	add func(context.Context, T) (T, error),
	defaults func() ([]T, error),
) ([]T, error) {
	items, err := list(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	seedList, err := defaults()
	if err != nil {
		return nil, err
	}
	for _, item := range seedList {
		if _, err := add(ctx, item); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return seedList, nil
}

func (c *Context) seedProducts() ([]content.Product, error) {
	products, err := seedItems(c.snapshot, "products.json", c.defaults.Products)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

// seedItems returns a copy of dir/name when dir is set and the file
// exists, otherwise a copy of fallback.
func seedItems[T any](dir, name string, fallback []T) ([]T, error) {
	items := fallback
	if dir != "" {
		if err := readSnapshot(dir, name, &items); err != nil {
			return nil, err
		}
	}
	return slices.Clone(items), nil
}

// readSnapshot decodes dir/name into v, leaving v alone when the file is
// missing.
func readSnapshot[T any](dir, name string, v *[]T) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", name, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	*v = items
	return nil
}

// Products returns a copy of the cached products, nil before Load.
func (c *Context) Products() []content.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

func (c *Context) Articles() []content.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.articles)
}

func (c *Context) Events() []content.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.events)
}

// ProductByID looks a product up in the cache.
func (c *Context) ProductByID(id string) (content.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return content.Product{}, false
}

type entity interface {
	EntityID() string
}

// mutate runs call against the backend and, only if it succeeds, applies
// apply to the cached list selected by pick.
func mutate[T entity](c *Context, pick func(*Context) *[]T, call func() (T, error), apply func([]T, T) []T) error {
	if c.State() != Ready {
		return ErrNotReady
	}
	v, err := call()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	list := pick(c)
	*list = apply(*list, v)
	return nil
}

func appendItem[T entity](list []T, v T) []T { return append(list, v) }

func replaceItem[T entity](list []T, v T) []T {
	out := make([]T, len(list))
	for i, item := range list {
		if item.EntityID() == v.EntityID() {
			out[i] = v
		} else {
			out[i] = item
		}
	}
	return out
}

func removeID[T entity](id string) func([]T, T) []T {
	return func(list []T, _ T) []T {
		return slices.DeleteFunc(slices.Clone(list), func(item T) bool { return item.EntityID() == id })
	}
}

func pickProducts(c *Context) *[]content.Product { return &c.products }
func pickArticles(c *Context) *[]content.Article { return &c.articles }
func pickEvents(c *Context) *[]content.Event     { return &c.events }

func (c *Context) AddProduct(ctx context.Context, p content.Product) error {
	return mutate(c, pickProducts, func() (content.Product, error) { return c.gw.AddProduct(ctx, p) }, appendItem[content.Product])
}

func (c *Context) UpdateProduct(ctx context.Context, p content.Product) error {
	return mutate(c, pickProducts, func() (content.Product, error) { return c.gw.UpdateProduct(ctx, p) }, replaceItem[content.Product])
}

func (c *Context) DeleteProduct(ctx context.Context, id string) error {
	return mutate(c, pickProducts, func() (content.Product, error) {
		return content.Product{}, c.gw.DeleteProduct(ctx, id)
	}, removeID[content.Product](id))
}

func (c *Context) AddArticle(ctx context.Context, a content.Article) error {
	return mutate(c, pickArticles, func() (content.Article, error) { return c.gw.AddArticle(ctx, a) }, appendItem[content.Article])
}

func (c *Context) UpdateArticle(ctx context.Context, a content.Article) error {
	return mutate(c, pickArticles, func() (content.Article, error) { return c.gw.UpdateArticle(ctx, a) }, replaceItem[content.Article])
}

func (c *Context) DeleteArticle(ctx context.Context, id string) error {
	return mutate(c, pickArticles, func() (content.Article, error) {
		return content.Article{}, c.gw.DeleteArticle(ctx, id)
	}, removeID[content.Article](id))
}

func (c *Context) AddEvent(ctx context.Context, e content.Event) error {
	return mutate(c, pickEvents, func() (content.Event, error) { return c.gw.AddEvent(ctx, e) }, appendItem[content.Event])
}

func (c *Context) UpdateEvent(ctx context.Context, e content.Event) error {
	return mutate(c, pickEvents, func() (content.Event, error) { return c.gw.UpdateEvent(ctx, e) }, replaceItem[content.Event])
}

func (c *Context) DeleteEvent(ctx context.Context, id string) error {
	return mutate(c, pickEvents, func() (content.Event, error) {
		return content.Event{}, c.gw.DeleteEvent(ctx, id)
	}, removeID[content.Event](id))
}
