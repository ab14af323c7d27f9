// Package catalog maintains the jewelry product catalog and recommends
// products similar to a generated design.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// loadConcurrency bounds parallel JSON reads during a catalog load.
const loadConcurrency = 4

// Catalog is an in-memory product catalog backed by a directory of JSON
// files, one product per file. Loads swap the product set atomically so
// readers never observe a half-loaded catalog.
type Catalog struct {
	dir string

	mu       sync.RWMutex
	products []jewelry.Product
	byID     map[string]jewelry.Product
}

// New creates a catalog rooted at dir. Call Load before first use.
func New(dir string) *Catalog {
	return &Catalog{dir: dir, byID: map[string]jewelry.Product{}}
}

// Load reads every *.json file under the catalog directory. Files that fail
// to parse are logged and skipped so one bad product cannot take down the
// catalog. Safe to call again to reload.
func (c *Catalog) Load(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("listing catalog dir: %w", err)
	}
	if _, err := os.Stat(c.dir); err != nil {
		return fmt.Errorf("catalog dir: %w", err)
	}

	var mu sync.Mutex
	var products []jewelry.Product

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for _, path := range matches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := readProduct(path)
			if err != nil {
				slog.Error("skipping catalog file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			products = append(products, p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	byID := make(map[string]jewelry.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.mu.Unlock()

	slog.Info("loaded product catalog", "dir", c.dir, "products", len(products))
	return nil
}

func readProduct(path string) (jewelry.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jewelry.Product{}, err
	}
	var p jewelry.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return jewelry.Product{}, fmt.Errorf("parsing product: %w", err)
	}
	if p.ID == "" || p.Name == "" {
		return jewelry.Product{}, fmt.Errorf("product missing id or name")
	}
	if err := p.Properties.Validate(); err != nil {
		return jewelry.Product{}, err
	}
	return p, nil
}

// Products returns a snapshot of all products.
func (c *Catalog) Products() []jewelry.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]jewelry.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a product by id.
func (c *Catalog) Product(id string) (jewelry.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of loaded products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Store writes a product to the catalog directory and adds it to the live
// set.
func (c *Catalog) Store(p jewelry.Product) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("product missing id or name")
	}
	if err := p.Properties.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}
	path := filepath.Join(c.dir, p.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing product: %w", err)
	}

	c.mu.Lock()
	if _, exists := c.byID[p.ID]; !exists {
		c.products = append(c.products, p)
		sort.Slice(c.products, func(i, j int) bool { return c.products[i].ID < c.products[j].ID })
	} else {
		for i := range c.products {
			if c.products[i].ID == p.ID {
				c.products[i] = p
				break
			}
		}
	}
	c.byID[p.ID] = p
	c.mu.Unlock()
	return nil
}
