package design

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neyugncol/jewelry-design-platform-api/internal/gateway"
	"github.com/neyugncol/jewelry-design-platform-api/internal/jewelry"
)

type renderCall struct {
	prompt string
	refs   []gateway.Blob
}

type stubSession struct {
	calls   []renderCall
	data    [][]byte
	failAt  int // 1-based call index to fail at, 0 disables
	failErr error
}

func (s *stubSession) Render(_ context.Context, prompt string, refs []gateway.Blob) ([]byte, error) {
	s.calls = append(s.calls, renderCall{prompt: prompt, refs: refs})
	if s.failAt == len(s.calls) {
		return nil, s.failErr
	}
	if len(s.data) >= len(s.calls) {
		return s.data[len(s.calls)-1], nil
	}
	return []byte("png"), nil
}

type stubImageRenderer struct {
	session *stubSession
}

func (r *stubImageRenderer) NewImageSession() gateway.ImageSession {
	return r.session
}

func testDesign() jewelry.Design {
	return jewelry.Design{
		ID:          "d1",
		Name:        "Mekong Dawn",
		Description: "A rose gold ring with a ruby.",
		Properties:  jewelry.Properties{JewelryType: "ring", Metal: "gold", Gemstone: "ruby"},
	}
}

func TestRenderViews(t *testing.T) {
	session := &stubSession{}
	r := NewRenderer(&stubImageRenderer{session: session})

	refs := []gateway.Blob{{MIME: "image/jpeg", Data: []byte("ref")}}
	got, err := r.RenderViews(context.Background(), testDesign(), refs, "vintage look")
	if err != nil {
		t.Fatalf("RenderViews() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d views, want 3", len(got))
	}
	for i, want := range []string{"front", "side", "top"} {
		if got[i].Type != want {
			t.Errorf("view %d type = %q, want %q", i, got[i].Type, want)
		}
	}

	// Reference images only on the first call.
	if len(session.calls[0].refs) != 1 {
		t.Errorf("first call got %d refs, want 1", len(session.calls[0].refs))
	}
	for i := 1; i < len(session.calls); i++ {
		if len(session.calls[i].refs) != 0 {
			t.Errorf("call %d got refs, want none", i)
		}
	}

	if !strings.Contains(session.calls[0].prompt, "Mekong Dawn") {
		t.Error("prompt missing design name")
	}
	if !strings.Contains(session.calls[0].prompt, "vintage look") {
		t.Error("prompt missing style context")
	}
	// Later views reference the earlier ones for consistency.
	if !strings.Contains(session.calls[2].prompt, "front, side") {
		t.Errorf("top view prompt does not chain previous views: %q", session.calls[2].prompt)
	}
}

func TestRenderViews_FailureAbortsRun(t *testing.T) {
	wantErr := errors.New("blocked")
	session := &stubSession{failAt: 2, failErr: wantErr}
	r := NewRenderer(&stubImageRenderer{session: session})

	_, err := r.RenderViews(context.Background(), testDesign(), nil, "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("RenderViews() error = %v, want wrapped %v", err, wantErr)
	}
	if len(session.calls) != 2 {
		t.Errorf("made %d calls after failure, want 2", len(session.calls))
	}
}

func TestRenderViews_EmptyImageFails(t *testing.T) {
	session := &stubSession{data: [][]byte{[]byte("png"), {}, []byte("png")}}
	r := NewRenderer(&stubImageRenderer{session: session})

	if _, err := r.RenderViews(context.Background(), testDesign(), nil, ""); err == nil {
		t.Fatal("expected error for empty image data")
	}
}
