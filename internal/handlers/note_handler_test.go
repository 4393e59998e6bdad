package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/learnroad/learnroad-api/internal/models"
	"github.com/learnroad/learnroad-api/internal/services"
)

type stubNoteService struct {
	result      *models.SessionNote
	err         error
	saved       bool
	lastContent string
}

func (s *stubNoteService) Get(_ context.Context, _ services.Actor, _ int64) (*models.SessionNote, error) {
	return s.result, s.err
}

func (s *stubNoteService) Save(_ context.Context, _ services.Actor, _ int64, content string) (*models.SessionNote, error) {
	s.saved = true
	s.lastContent = content
	return s.result, s.err
}

func newNoteApp(service *stubNoteService) *fiber.App {
	handler := &NoteHandler{service: service}
	app := fiber.New()
	app.Use(withIdentity("student", "42"))
	app.Get("/api/v1/sessions/:id/notes", handler.GetNote)
	app.Put("/api/v1/sessions/:id/notes", handler.SaveNote)
	return app
}

func TestGetNoteReturnsNote(t *testing.T) {
	service := &stubNoteService{result: &models.SessionNote{SessionID: 12, Content: "chain rule", LastEditedBy: 7}}

	resp, err := newNoteApp(service).Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/12/notes", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Note models.SessionNote `json:"note"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Note.Content != "chain rule" || body.Note.LastEditedBy != 7 {
		t.Fatalf("unexpected note %+v", body.Note)
	}
}

func TestGetNoteHidesOtherSessions(t *testing.T) {
	service := &stubNoteService{err: services.ErrForbidden}

	resp, err := newNoteApp(service).Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/12/notes", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSaveNoteAcceptsEmptyContent(t *testing.T) {
	service := &stubNoteService{result: &models.SessionNote{SessionID: 12}}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/12/notes", strings.NewReader(`{"content": ""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newNoteApp(service).Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !service.saved || service.lastContent != "" {
		t.Fatalf("expected empty content saved, got %q", service.lastContent)
	}
}

func TestSaveNoteRequiresContent(t *testing.T) {
	service := &stubNoteService{}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/12/notes", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newNoteApp(service).Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.saved {
		t.Fatal("service should not be called")
	}
}
