// Package seed bundles the default catalog, news and event schedule used
// to populate an empty backend.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/sitelangsirat/deswita-backend/internal/modules/content"
)

//go:embed *.json
var files embed.FS

// Dataset holds one list per collection.
type Dataset struct {
	Products []content.Product
	Articles []content.Article
	Events   []content.Event
}

// Defaults decodes the bundled dataset.
func Defaults() (Dataset, error) {
	var ds Dataset
	if err := decode("products.json", &ds.Products); err != nil {
		return Dataset{}, err
	}
	if err := decode("articles.json", &ds.Articles); err != nil {
		return Dataset{}, err
	}
	if err := decode("events.json", &ds.Events); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func decode(name string, v any) error {
	data, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode seed %s: %w", name, err)
	}
	return nil
}
