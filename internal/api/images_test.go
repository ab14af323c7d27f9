package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

func uploadImage(t *testing.T, h http.Handler, token, filename, contentType string, data []byte) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var view imageView
	decodeBody(t, rr, &view)
	if view.ID == "" {
		t.Fatal("empty image id")
	}
	return view.ID
}

func TestImages_UploadAndFetch(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	id := uploadImage(t, h, token, "ref.png", "image/png", []byte("pngbytes"))

	rr := doJSON(t, h, http.MethodGet, "/api/v1/images/"+id, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Body.String() != "pngbytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestImages_List(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	uploadImage(t, h, token, "a.png", "image/png", []byte("a"))
	uploadImage(t, h, token, "b.png", "image/png", []byte("b"))

	rr := doJSON(t, h, http.MethodGet, "/api/v1/images", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var body struct {
		Images []imageView `json:"images"`
	}
	decodeBody(t, rr, &body)
	if len(body.Images) != 2 {
		t.Fatalf("got %d images, want 2", len(body.Images))
	}
}

func TestImages_OwnershipIsolation(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	tokenA := registerAndLogin(t, h, "a@example.com")
	tokenB := registerAndLogin(t, h, "b@example.com")

	id := uploadImage(t, h, tokenA, "private.png", "image/png", []byte("secret"))

	rr := doJSON(t, h, http.MethodGet, "/api/v1/images/"+id, tokenB, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = doJSON(t, h, http.MethodDelete, "/api/v1/images/"+id, tokenB, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestImages_Delete(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	id := uploadImage(t, h, token, "gone.png", "image/png", []byte("x"))

	rr := doJSON(t, h, http.MethodDelete, "/api/v1/images/"+id, token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/v1/images/"+id, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d", rr.Code)
	}
}

func TestImages_MissingFileField(t *testing.T) {
	h, _, _, _ := newTestServer(t)
	token := registerAndLogin(t, h, "linh@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("conversation_id", "whatever")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestImageStore_RequiresOwnerContext(t *testing.T) {
	_, store, _, _ := newTestServer(t)

	saver := NewImageStore(store)
	if _, err := saver.Save(context.Background(), "f.png", "image/png", []byte("x")); err == nil {
		t.Fatal("expected error without owner in context")
	}
}
