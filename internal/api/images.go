package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

const maxImageSize = 10 << 20 // 10MB

type imageOwner struct {
	userID         string
	conversationID string
}

// withImageOwner marks the context so images saved during an assistant run
// are attributed to the right user and conversation.
func withImageOwner(ctx context.Context, userID, conversationID string) context.Context {
	return context.WithValue(ctx, imageOwnerKey, imageOwner{userID: userID, conversationID: conversationID})
}

// ImageStore persists generated view images through the same table as
// uploaded ones. It satisfies the image saver the rendering tool needs.
type ImageStore struct {
	store *storage.Store
}

func NewImageStore(store *storage.Store) *ImageStore {
	return &ImageStore{store: store}
}

func (s *ImageStore) Save(ctx context.Context, filename, mime string, data []byte) (string, error) {
	owner, ok := ctx.Value(imageOwnerKey).(imageOwner)
	if !ok {
		return "", errors.New("no image owner in context")
	}

	img := storage.Image{
		ID:             uuid.New().String(),
		UserID:         owner.userID,
		ConversationID: owner.conversationID,
		Filename:       filename,
		ContentType:    mime,
		Data:           data,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveImage(img); err != nil {
		return "", err
	}
	return img.ID, nil
}

type imageView struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func viewImage(img storage.Image) imageView {
	return imageView{
		ID:             img.ID,
		Filename:       img.Filename,
		ContentType:    img.ContentType,
		ConversationID: img.ConversationID,
		CreatedAt:      img.CreatedAt,
	}
}

func (s *server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart form: %v", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "reading file: %v", err)
		return
	}
	if len(data) == 0 {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "file is empty")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	conversationID := r.FormValue("conversation_id")
	if conversationID != "" {
		if _, ok := s.ownedConversation(w, r, conversationID); !ok {
			return
		}
	}

	img := storage.Image{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		ConversationID: conversationID,
		Filename:       header.Filename,
		ContentType:    contentType,
		Data:           data,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveImage(img); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "saving image: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, viewImage(img))
}

func (s *server) handleListImages(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	imgs, err := s.store.ListImages(user.ID)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "listing images: %v", err)
		return
	}

	views := make([]imageView, len(imgs))
	for i, img := range imgs {
		views[i] = viewImage(img)
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": views})
}

func (s *server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.ownedImage(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Write(img.Data)
}

func (s *server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.ownedImage(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := s.store.DeleteImage(img.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusInternalServerError, "api_error", "deleting image: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) ownedImage(w http.ResponseWriter, r *http.Request, id string) (storage.Image, bool) {
	user, _ := userFromContext(r.Context())

	img, err := s.store.GetImage(id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && img.UserID != user.ID) {
		httpError(w, http.StatusNotFound, "not_found_error", "image not found")
		return storage.Image{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading image: %v", err)
		return storage.Image{}, false
	}
	return img, true
}
