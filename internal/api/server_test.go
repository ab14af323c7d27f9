package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neyugncol/jewelry-design-platform-api/internal/assistant"
	"github.com/neyugncol/jewelry-design-platform-api/internal/catalog"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
	"github.com/neyugncol/jewelry-design-platform-api/internal/storage"
)

// fakeRunner is a scripted assistant for handler tests.
type fakeRunner struct {
	out     *assistant.Output
	history []assistant.Message
	profile jewelry.Profile
	ctx     context.Context
}

func (f *fakeRunner) Run(ctx context.Context, messages []assistant.Message, profile jewelry.Profile) *assistant.Output {
	f.ctx = ctx
	f.history = messages
	f.profile = profile
	if f.out != nil {
		return f.out
	}
	return &assistant.Output{Message: "ok", Iterations: 1}
}

func newTestServer(t *testing.T) (http.Handler, *storage.Store, *fakeRunner, *catalog.Catalog) {
	t.Helper()

	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	runner := &fakeRunner{}
	cat := catalog.New(t.TempDir())

	h := NewHandler(Deps{Store: store, Assistant: runner, Catalog: cat})
	return h, store, runner, cat
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// registerAndLogin creates a user and returns a valid session token.
func registerAndLogin(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	rr := doJSON(t, h, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
		"name":     "Linh",
		"gender":   "female",
		"segment":  "premium",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp loginResponse
	decodeBody(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("empty session token")
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body map[string]string
	decodeBody(t, rr, &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestRoot_ServiceInfo(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body map[string]string
	decodeBody(t, rr, &body)
	if body["service"] != "jewelryd" {
		t.Errorf("service = %q", body["service"])
	}
}

func TestRegister_CreatesUser(t *testing.T) {
	h, store, _, _ := newTestServer(t)

	rr := doJSON(t, h, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"email":    "An@Example.com",
		"password": "correct horse",
		"name":     "An",
		"region":   "south",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var view userView
	decodeBody(t, rr, &view)
	if view.Email != "an@example.com" {
		t.Errorf("email = %q, want lowercased", view.Email)
	}
	if !view.IsActive {
		t.Error("new user should be active")
	}

	u, err := store.GetUserByEmail("an@example.com")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if u.HashedPassword == "correct horse" {
		t.Error("password stored in plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"password": "longenough"}},
		{"bad email", map[string]any{"email": "nope", "password": "longenough"}},
		{"short password", map[string]any{"email": "a@b.c", "password": "short"}},
		{"bad segment", map[string]any{"email": "a@b.c", "password": "longenough", "segment": "imperial"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, h, http.MethodPost, "/api/v1/users/register", "", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	registerAndLogin(t, h, "dup@example.com")

	rr := doJSON(t, h, http.MethodPost, "/api/v1/users/register", "", map[string]any{
		"email":    "dup@example.com",
		"password": "anotherpassword",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	registerAndLogin(t, h, "linh@example.com")

	rr := doJSON(t, h, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email":    "linh@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuth_RequiredForProtectedRoutes(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	for _, path := range []string{"/api/v1/users/me", "/api/v1/conversations", "/api/v1/images"} {
		rr := doJSON(t, h, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, rr.Code, http.StatusUnauthorized)
		}
	}

	rr := doJSON(t, h, http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bogus token status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestMe_ReturnsProfile(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	rr := doJSON(t, h, http.MethodGet, "/api/v1/users/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var view userView
	decodeBody(t, rr, &view)
	if view.Name != "Linh" || view.Segment != "premium" {
		t.Errorf("view = %+v", view)
	}
}

func TestUpdateMe(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	rr := doJSON(t, h, http.MethodPut, "/api/v1/users/me", token, map[string]any{
		"name":    "Linh Nguyen",
		"segment": "luxury",
		"age":     29,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var view userView
	decodeBody(t, rr, &view)
	if view.Name != "Linh Nguyen" || view.Segment != "luxury" || view.Age != 29 {
		t.Errorf("view = %+v", view)
	}

	rr = doJSON(t, h, http.MethodPut, "/api/v1/users/me", token, map[string]any{"region": "west"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid region status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	rr := doJSON(t, h, http.MethodPost, "/api/v1/users/logout", token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/users/me", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status after logout = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestListProducts(t *testing.T) {
	h, _, _, cat := newTestServer(t)

	p := jewelry.Product{
		ID:          "ring-01",
		Name:        "Solitaire Ring",
		Description: "Classic solitaire",
		Properties:  jewelry.Properties{JewelryType: "ring", Metal: "gold"},
		Images:      []string{},
		Price:       12000000,
	}
	if err := cat.Store(p); err != nil {
		t.Fatalf("storing product: %v", err)
	}

	rr := doJSON(t, h, http.MethodGet, "/api/v1/products", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Products []jewelry.Product `json:"products"`
	}
	decodeBody(t, rr, &body)
	if len(body.Products) != 1 || body.Products[0].ID != "ring-01" {
		t.Errorf("products = %+v", body.Products)
	}
}

func TestHTTPError_Shape(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", strings.NewReader("{invalid"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	decodeBody(t, rr, &body)
	if body.Error.Type != "invalid_request_error" || body.Error.Message == "" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestSessionToken_IsHashedAtRest(t *testing.T) {
	h, store, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	if _, err := store.GetSession(token); err == nil {
		t.Fatal("raw token resolvable as session; tokens must be stored hashed")
	}
	if _, err := store.GetSession(hashToken(token)); err != nil {
		t.Fatalf("hashed token not found: %v", err)
	}
}
