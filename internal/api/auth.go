package api

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

const (
	sessionTTL        = 7 * 24 * time.Hour
	minPasswordLength = 8
)

type ctxKey int

const (
	userKey ctxKey = iota
	sessionKey
	imageOwnerKey
)

func userFromContext(ctx context.Context) (storage.User, bool) {
	u, ok := ctx.Value(userKey).(storage.User)
	return u, ok
}

// sessionAuth resolves the bearer token to a user and injects it into the
// request context. Expired sessions are deleted on sight.
func (s *server) sessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
			return
		}

		tokenHash := hashToken(auth[len(prefix):])
		sess, err := s.store.GetSession(tokenHash)
		if err != nil {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
			return
		}
		if time.Now().After(sess.ExpiresAt) {
			s.store.DeleteSession(tokenHash)
			httpError(w, http.StatusUnauthorized, "authentication_error", "session expired")
			return
		}

		user, err := s.store.GetUser(sess.UserID)
		if err != nil || !user.IsActive {
			httpError(w, http.StatusUnauthorized, "authentication_error", "invalid or missing bearer token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, sessionKey, tokenHash)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type registerRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	Age           int    `json:"age"`
	MaritalStatus string `json:"marital_status"`
	Segment       string `json:"segment"`
	Region        string `json:"region"`
	Nationality   string `json:"nationality"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "password must be at least %d characters", minPasswordLength)
		return
	}
	if err := validateDemographics(req.Gender, req.MaritalStatus, req.Segment, req.Region); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return
	}

	if _, err := s.store.GetUserByEmail(req.Email); err == nil {
		httpError(w, http.StatusConflict, "conflict_error", "email already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusInternalServerError, "api_error", "looking up email: %v", err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "hashing password: %v", err)
		return
	}

	now := time.Now().UTC()
	user := storage.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		HashedPassword: string(hashed),
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		MaritalStatus:  req.MaritalStatus,
		Segment:        req.Segment,
		Region:         req.Region,
		Nationality:    req.Nationality,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateUser(user); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "creating user: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, viewUser(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return
	}

	user, err := s.store.GetUserByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		httpError(w, http.StatusUnauthorized, "authentication_error", "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		httpError(w, http.StatusUnauthorized, "authentication_error", "invalid email or password")
		return
	}
	if !user.IsActive {
		httpError(w, http.StatusForbidden, "authentication_error", "account is disabled")
		return
	}

	token, err := newSessionToken()
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "generating session token: %v", err)
		return
	}

	now := time.Now().UTC()
	sess := storage.Session{
		Token:     hashToken(token),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := s.store.CreateSession(sess); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "creating session: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: sess.ExpiresAt})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	tokenHash, _ := r.Context().Value(sessionKey).(string)
	if err := s.store.DeleteSession(tokenHash); err != nil && !errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken digests a session token for storage; raw tokens never hit disk.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
