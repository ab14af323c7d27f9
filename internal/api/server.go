// Package api implements the REST and MCP surfaces of the design platform.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/neyugncol/jewelry-design-platform-api/internal/assistant"
	"github.com/neyugncol/jewelry-design-platform-api/internal/catalog"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Runner abstracts the design assistant for the HTTP layer.
type Runner interface {
	Run(ctx context.Context, messages []assistant.Message, profile jewelry.Profile) *assistant.Output
}

// Deps holds dependencies for the REST API.
type Deps struct {
	Store     *storage.Store
	Assistant Runner
	Catalog   *catalog.Catalog
}

type server struct {
	store     *storage.Store
	assistant Runner
	catalog   *catalog.Catalog
}

// NewHandler returns an http.Handler serving the platform REST API.
func NewHandler(deps Deps) http.Handler {
	s := &server{
		store:     deps.Store,
		assistant: deps.Assistant,
		catalog:   deps.Catalog,
	}

	r := chi.NewRouter()

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)
		r.Get("/products", s.handleListProducts)

		r.Group(func(r chi.Router) {
			r.Use(s.sessionAuth)

			r.Get("/users/me", s.handleMe)
			r.Put("/users/me", s.handleUpdateMe)
			r.Post("/users/logout", s.handleLogout)

			r.Post("/conversations", s.handleCreateConversation)
			r.Get("/conversations", s.handleListConversations)
			r.Get("/conversations/{id}", s.handleGetConversation)
			r.Delete("/conversations/{id}", s.handleDeleteConversation)

			r.Post("/chat", s.handleChat)

			r.Post("/images", s.handleUploadImage)
			r.Get("/images", s.handleListImages)
			r.Get("/images/{id}", s.handleGetImage)
			r.Delete("/images/{id}", s.handleDeleteImage)
		})
	})

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "jewelryd",
		"version": "1.0.0",
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"products": s.catalog.Products(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
