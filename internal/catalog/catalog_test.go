package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p2.json", `{"id": "p2", "name": "Gold Band", "description": "plain band", "price": 5000000, "properties": {"jewelry_type": "ring", "metal": "gold"}}`)
	writeFile(t, dir, "p1.json", `{"id": "p1", "name": "Ruby Ring", "description": "ruby solitaire", "price": 12000000, "properties": {"gemstone": "ruby"}}`)
	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "invalid.json", `{"id": "p3", "name": "Bad", "properties": {"metal": "mithril"}}`)
	writeFile(t, dir, "notes.txt", `ignored`)

	c := New(dir)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := c.Products()
	if len(got) != 2 {
		t.Fatalf("loaded %d products, want 2", len(got))
	}
	// Deterministic order by id regardless of load order.
	if got[0].ID != "p1" || got[1].ID != "p2" {
		t.Errorf("products = [%s, %s], want [p1, p2]", got[0].ID, got[1].ID)
	}

	p, ok := c.Product("p2")
	if !ok || p.Name != "Gold Band" {
		t.Errorf("Product(p2) = (%+v, %v)", p, ok)
	}
	if _, ok := c.Product("p3"); ok {
		t.Error("invalid product should not be loaded")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope"))
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoad_Reload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p1.json", `{"id": "p1", "name": "A", "description": "d", "price": 1}`)

	c := New(dir)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "p2.json", `{"id": "p2", "name": "B", "description": "d", "price": 2}`)
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after reload = %d, want 2", c.Len())
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)

	p := jewelry.Product{
		ID:          "p1",
		Name:        "Pearl Drop",
		Description: "pearl earring",
		Properties:  jewelry.Properties{JewelryType: "earring", Gemstone: "pearl"},
		Images:      []string{},
		Price:       3500000,
	}
	if err := c.Store(p); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "p1.json")); err != nil {
		t.Errorf("product file not written: %v", err)
	}
	got, ok := c.Product("p1")
	if !ok || got.Price != 3500000 {
		t.Errorf("Product(p1) = (%+v, %v)", got, ok)
	}

	// Fresh catalog sees the stored file.
	c2 := New(dir)
	if err := c2.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c2.Len() != 1 {
		t.Errorf("reloaded catalog has %d products, want 1", c2.Len())
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	c := New(t.TempDir())
	if err := c.Store(jewelry.Product{ID: "x"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := c.Store(jewelry.Product{ID: "x", Name: "n", Properties: jewelry.Properties{Shape: "dodecahedron"}}); err == nil {
		t.Error("expected error for invalid shape")
	}
}
