package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neyugncol/jewelry-design-platform-api/internal/catalog"
	"github.com/neyugncol/jewelry-design-platform-api/internal/config"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the product catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate and count the products in the catalog directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}

		printSuccess("Loaded %d products", cat.Len())
		return nil
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}

		products := cat.Products()
		if len(products) == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}

		for _, p := range products {
			fmt.Println(productLine(p))
		}
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.pdf>",
	Short: "Extract products from a PDF product sheet into the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		ctx := cmd.Context()
		gw, err := gateway.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel, cfg.Gemini.ImageModel)
		if err != nil {
			return fmt.Errorf("creating model gateway: %w", err)
		}
		defer gw.Close()

		if err := os.MkdirAll(cfg.Catalog.Dir, 0o755); err != nil {
			return fmt.Errorf("creating catalog dir: %w", err)
		}
		cat := catalog.New(cfg.Catalog.Dir)
		if err := cat.Load(ctx); err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}

		printStep("Importing products from %s...", path)
		imported, err := catalog.NewImporter(gw, cat).ImportPDF(ctx, path)
		if err != nil {
			return err
		}

		printSuccess("Imported %d products (%d total)", imported, cat.Len())
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogLoadCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}

func openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Catalog.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}
	cat := catalog.New(cfg.Catalog.Dir)
	if err := cat.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

func productLine(p jewelry.Product) string {
	id := p.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s  %-40s  %12.0f VND", colorize(colorCyan, id), p.Name, p.Price)
}
