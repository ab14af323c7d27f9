package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/neyugncol/jewelry-design-platform-api/internal/artifact"
	"github.com/neyugncol/jewelry-design-platform-api/internal/assistant"
	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

type chatRequest struct {
	ConversationID string          `json:"conversation_id"`
	Message        string          `json:"message"`
	Images         []string        `json:"images,omitempty"`
	Artifact       json.RawMessage `json:"artifact,omitempty"`
}

type chatResponse struct {
	UserMessage      messageView `json:"user_message"`
	AssistantMessage messageView `json:"assistant_message"`
}

// runMeta is persisted alongside the assistant message for audit.
type runMeta struct {
	Iterations int    `json:"iterations"`
	Warning    string `json:"warning,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}
	if req.Message == "" {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
		return
	}

	conv, ok := s.ownedConversation(w, r, req.ConversationID)
	if !ok {
		return
	}

	var clientArtifact *artifact.Artifact
	if len(req.Artifact) > 0 && string(req.Artifact) != "null" {
		clientArtifact = new(artifact.Artifact)
		if err := json.Unmarshal(req.Artifact, clientArtifact); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid artifact: %v", err)
			return
		}
	}

	blobs, ok := s.loadImageBlobs(w, user.ID, req.Images)
	if !ok {
		return
	}

	stored, err := s.store.ListMessages(conv.ID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading history: %v", err)
		return
	}
	history := toAssistantHistory(stored)

	userMsg := storage.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        req.Message,
		Images:         req.Images,
		Artifact:       req.Artifact,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.AppendMessage(userMsg); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "saving message: %v", err)
		return
	}

	history = append(history, assistant.Message{
		Role:     "user",
		Content:  req.Message,
		Images:   blobs,
		Artifact: clientArtifact,
	})

	// Generated view images are stored under this conversation.
	ctx := withImageOwner(r.Context(), user.ID, conv.ID)
	out := s.assistant.Run(ctx, history, profileFor(user))

	asstMsg := storage.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        out.Message,
		Meta: marshalRaw(runMeta{
			Iterations: out.Iterations,
			Warning:    out.Warning,
			Error:      out.Error,
		}),
		CreatedAt: time.Now().UTC(),
	}
	if len(out.ToolCalls) > 0 {
		asstMsg.ToolCalls = marshalRaw(out.ToolCalls)
	}
	if out.Artifact != nil {
		asstMsg.Artifact = marshalRaw(out.Artifact)
	}
	if err := s.store.AppendMessage(asstMsg); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "saving assistant message: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		UserMessage:      viewMessage(userMsg),
		AssistantMessage: viewMessage(asstMsg),
	})
}

// toAssistantHistory converts stored rows to loop input. Image blobs are left
// out: the loop only reads images from the newest user message, which the
// handler appends separately.
func toAssistantHistory(stored []storage.Message) []assistant.Message {
	history := make([]assistant.Message, 0, len(stored))
	for _, m := range stored {
		msg := assistant.Message{Role: m.Role, Content: m.Content}
		if len(m.Artifact) > 0 && string(m.Artifact) != "null" {
			var art artifact.Artifact
			if err := json.Unmarshal(m.Artifact, &art); err != nil {
				slog.Warn("skipping unreadable stored artifact", "message_id", m.ID, "error", err)
			} else {
				msg.Artifact = &art
			}
		}
		history = append(history, msg)
	}
	return history
}

func (s *server) loadImageBlobs(w http.ResponseWriter, userID string, ids []string) ([]gateway.Blob, bool) {
	var blobs []gateway.Blob
	for _, id := range ids {
		img, err := s.store.GetImage(id)
		if err != nil || img.UserID != userID {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown image id %q", id)
			return nil, false
		}
		blobs = append(blobs, gateway.Blob{MIME: img.ContentType, Data: img.Data})
	}
	return blobs, true
}

func marshalRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message field", "error", err)
		return nil
	}
	return b
}
