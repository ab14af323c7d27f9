package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/neyugncol/jewelry-design-platform-api/internal/api"
	"github.com/neyugncol/jewelry-design-platform-api/internal/assistant"
	"github.com/neyugncol/jewelry-design-platform-api/internal/catalog"
	"github.com/neyugncol/jewelry-design-platform-api/internal/config"
	"github.com/neyugncol/jewelry-design-platform-api/internal/design"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the jewelryd server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running jewelryd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show jewelryd system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve design tools over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPStdio()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "jewelryd.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// components holds the shared domain wiring used by both the HTTP server
// and the MCP transports.
type components struct {
	store       *storage.Store
	gw          *gateway.Gemini
	cat         *catalog.Catalog
	designer    *design.ConceptDesigner
	recommender recommenderWithDefaults
}

func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	gw, err := gateway.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel, cfg.Gemini.ImageModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating model gateway: %w", err)
	}

	if err := os.MkdirAll(cfg.Catalog.Dir, 0o755); err != nil {
		gw.Close()
		store.Close()
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}
	cat := catalog.New(cfg.Catalog.Dir)
	if err := cat.Load(ctx); err != nil {
		gw.Close()
		store.Close()
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded", "products", cat.Len(), "dir", cfg.Catalog.Dir)

	return &components{
		store:    store,
		gw:       gw,
		cat:      cat,
		designer: design.NewConceptDesigner(gw),
		recommender: recommenderWithDefaults{
			inner:  catalog.NewRecommender(gw, cat),
			topK:   cfg.Catalog.TopK,
			minSim: cfg.Catalog.MinSimilarity,
		},
	}, nil
}

func (c *components) Close() {
	c.gw.Close()
	if err := c.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
	}
}

// recommenderWithDefaults substitutes configured defaults when the caller
// leaves top_k or min_similarity unset.
type recommenderWithDefaults struct {
	inner  *catalog.Recommender
	topK   int
	minSim float64
}

func (r recommenderWithDefaults) Recommend(ctx context.Context, d jewelry.Design, topK int, minSimilarity float64) ([]jewelry.Product, error) {
	if topK <= 0 {
		topK = r.topK
	}
	if minSimilarity <= 0 {
		minSimilarity = r.minSim
	}
	return r.inner.Recommend(ctx, d, topK, minSimilarity)
}

func setupLogging(cfg config.Config) {
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "jewelryd version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	// Refuse to double-start. The health endpoint is the source of truth;
	// the PID file only names the culprit.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("jewelryd is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("jewelryd is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	saver := api.NewImageStore(comps.store)
	reg := assistant.NewRegistryWith(
		comps.designer,
		design.NewRenderer(comps.gw),
		saver,
		design.UnavailableModelGenerator{},
		comps.recommender,
	)
	asst := assistant.New(comps.gw, reg)

	handler := api.NewHandler(api.Deps{
		Store:     comps.store,
		Assistant: asst,
		Catalog:   comps.cat,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Expired sessions accumulate silently; sweep them hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := comps.store.DeleteExpiredSessions(); err != nil {
					slog.Error("sweeping expired sessions", "error", err)
				}
			}
		}
	}()

	// MCP over SSE on its own port, alongside the REST API.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Designer:    comps.designer,
		Recommender: comps.recommender,
		Catalog:     comps.cat,
	})
	sseSrv := server.NewSSEServer(mcpSrv)
	mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)
	go func() {
		if err := sseSrv.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP SSE server error", "error", err)
		}
	}()
	slog.Info("MCP server started", "addr", mcpAddr)

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "jewelryd listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sseSrv.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func runMCPStdio() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := buildComponents(ctx, cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Designer:    comps.designer,
		Recommender: comps.recommender,
		Catalog:     comps.cat,
	})

	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("jewelryd is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop jewelryd (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to jewelryd (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client := newAPIClient(cfg.Server.Port)

	running := false
	resp, err := client.get(context.Background(), "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Chat model", "%s", cfg.Gemini.ChatModel)
	printStatus("Image model", "%s", cfg.Gemini.ImageModel)
	printStatus("MCP port", "%d", cfg.Server.MCPPort)

	if running {
		resp, err := client.get(context.Background(), "/api/v1/products")
		if err == nil {
			var body struct {
				Products []jewelry.Product `json:"products"`
			}
			if decodeJSON(resp, &body) == nil {
				printStatus("Catalog", "%d products", len(body.Products))
			}
		}
	}

	printStatus("Catalog dir", "%s", cfg.Catalog.Dir)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
