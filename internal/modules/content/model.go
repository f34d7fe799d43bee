package content

import (
	"fmt"
	"strings"
	"time"
)

// Collection names one of the three persisted entity arrays.
type Collection string

const (
	Products Collection = "products"
	Articles Collection = "articles"
	Events   Collection = "events"
)

// Collections lists every collection in document order.
var Collections = []Collection{Products, Articles, Events}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	switch c {
	case Products, Articles, Events:
		return true
	}
	return false
}

// UploadPrefix marks image paths produced by the upload endpoint. Only
// such paths are ever removed from media storage.
const UploadPrefix = "/uploads/"

// Record is an entity as the server stores it. The server never enforces
// a shape beyond reading "id" and the image fields.
type Record map[string]any

// ID returns the record's "id" field, or "" when missing or not a string.
func (r Record) ID() string {
	id, _ := r["id"].(string)
	return id
}

// ImagePaths returns every image reference in the record, reading the
// "images" array and the legacy "image" field.
func (r Record) ImagePaths() []string {
	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	switch imgs := r["images"].(type) {
	case []any:
		for _, v := range imgs {
			if s, ok := v.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range imgs {
			add(s)
		}
	}
	if s, ok := r["image"].(string); ok {
		add(s)
	}
	return paths
}

// IsUploaded reports whether path points into managed upload storage.
func IsUploaded(path string) bool {
	return strings.HasPrefix(path, UploadPrefix)
}

// NewID builds a client-side identifier from a type prefix and the
// current time in milliseconds, e.g. "p1700000000000".
func NewID(prefix string, now time.Time) string {
	return fmt.Sprintf("%s%d", prefix, now.UnixMilli())
}

// Category is a product category.
type Category string

const (
	CategoryDrink Category = "Drink"
	CategoryCare  Category = "Care"
	CategorySeed  Category = "Seed"
)

// Product is an item in the shop catalog. Price is in rupiah.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Images      []string `json:"images,omitempty"`
	Image       string   `json:"image,omitempty"`
	Ingredients string   `json:"ingredients,omitempty"`
	Usage       string   `json:"usage,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Size        string   `json:"size,omitempty"`
}

func (p Product) EntityID() string { return p.ID }

// PrimaryImage returns the first image, falling back to the legacy field.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return p.Image
}

// Article is a news item.
type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date"`
	ISODate  string `json:"isoDate,omitempty"`
	Image    string `json:"image"`
	Content  string `json:"content,omitempty"`
	URL      string `json:"url,omitempty"`
	Quote    string `json:"quote,omitempty"`
	Views    string `json:"views"`
}

func (a Article) EntityID() string { return a.ID }

// Event is a festival schedule entry.
type Event struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	ISODate     string `json:"isoDate,omitempty"`
	Title       string `json:"title"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func (e Event) EntityID() string { return e.ID }

var shortMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// DisplayDate renders an ISO date (YYYY-MM-DD) the way the site shows
// dates, e.g. "1 Okt 2024".
func DisplayDate(isoDate string) (string, error) {
	t, err := time.Parse(time.DateOnly, isoDate)
	if err != nil {
		return "", fmt.Errorf("parse iso date %q: %w", isoDate, err)
	}
	return fmt.Sprintf("%d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year()), nil
}

// Normalize fills Images and Sizes from the legacy single-value fields
// when the lists are empty. It mirrors MigrateProduct for typed values.
func (p *Product) Normalize() {
	if len(p.Images) == 0 && p.Image != "" {
		p.Images = []string{p.Image}
	}
	if len(p.Sizes) == 0 && p.Size != "" {
		p.Sizes = []string{p.Size}
	}
}
