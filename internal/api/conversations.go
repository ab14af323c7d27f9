package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

type conversationView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func viewConversation(c storage.Conversation) conversationView {
	return conversationView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type messageView struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Images    []string        `json:"images,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
	Artifact  json.RawMessage `json:"artifact,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func viewMessage(m storage.Message) messageView {
	return messageView{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		Images:    m.Images,
		ToolCalls: m.ToolCalls,
		Artifact:  m.Artifact,
		Meta:      m.Meta,
		CreatedAt: m.CreatedAt,
	}
}

type createConversationRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	now := time.Now().UTC()
	conv := storage.Conversation{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateConversation(conv); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "creating conversation: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, viewConversation(conv))
}

func (s *server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	convs, err := s.store.ListConversations(user.ID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "listing conversations: %v", err)
		return
	}

	views := make([]conversationView, len(convs))
	for i, c := range convs {
		views[i] = viewConversation(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": views})
}

func (s *server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.ownedConversation(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	msgs, err := s.store.ListMessages(conv.ID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "listing messages: %v", err)
		return
	}

	views := make([]messageView, len(msgs))
	for i, m := range msgs {
		views[i] = viewMessage(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": viewConversation(conv),
		"messages":     views,
	})
}

func (s *server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.ownedConversation(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := s.store.DeleteConversation(conv.ID); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "deleting conversation: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedConversation loads a conversation and verifies ownership. Conversations
// belonging to other users read as not found.
func (s *server) ownedConversation(w http.ResponseWriter, r *http.Request, id string) (storage.Conversation, bool) {
	user, _ := userFromContext(r.Context())

	conv, err := s.store.GetConversation(id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && conv.UserID != user.ID) {
		httpError(w, http.StatusNotFound, "not_found_error", "conversation not found")
		return storage.Conversation{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading conversation: %v", err)
		return storage.Conversation{}, false
	}
	return conv, true
}
