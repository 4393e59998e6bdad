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

type stubQuizService struct {
	result        *models.Quiz
	err           error
	called        bool
	lastSessionID int64
	lastInput     services.QuizInput
}

func (s *stubQuizService) Create(_ context.Context, _ services.Actor, sessionID int64, input services.QuizInput) (*models.Quiz, error) {
	s.called = true
	s.lastSessionID = sessionID
	s.lastInput = input
	return s.result, s.err
}

func (s *stubQuizService) Get(_ context.Context, _ services.Actor, sessionID int64) (*models.Quiz, error) {
	s.called = true
	s.lastSessionID = sessionID
	return s.result, s.err
}

func (s *stubQuizService) Update(_ context.Context, _ services.Actor, sessionID int64, input services.QuizInput) (*models.Quiz, error) {
	s.called = true
	s.lastSessionID = sessionID
	s.lastInput = input
	return s.result, s.err
}

func newQuizApp(service *stubQuizService, role string) *fiber.App {
	handler := &QuizHandler{service: service}
	app := fiber.New()
	app.Use(withIdentity(role, "7"))
	app.Post("/api/v1/sessions/:id/quiz", handler.CreateQuiz)
	app.Get("/api/v1/sessions/:id/quiz", handler.GetQuiz)
	app.Put("/api/v1/sessions/:id/quiz", handler.UpdateQuiz)
	return app
}

const quizBody = `{
	"title": "Fractions check",
	"questions": [
		{"text": "1/2 + 1/4?", "type": "multiple-choice", "options": [
			{"text": "3/4", "is_correct": true},
			{"text": "2/6"}
		]}
	],
	"is_published": true
}`

func TestCreateQuizReturnsCreated(t *testing.T) {
	service := &stubQuizService{result: &models.Quiz{ID: 3, SessionID: 12, Title: "Fractions check"}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/quiz", strings.NewReader(quizBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newQuizApp(service, "tutor").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 12 {
		t.Fatalf("expected session 12, got %d", service.lastSessionID)
	}
	if len(service.lastInput.Questions) != 1 || !service.lastInput.Questions[0].Options[0].IsCorrect {
		t.Fatalf("unexpected input %+v", service.lastInput)
	}
	if !service.lastInput.IsPublished {
		t.Fatal("expected is_published to be forwarded")
	}

	var body struct {
		Quiz models.Quiz `json:"quiz"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Quiz.ID != 3 {
		t.Fatalf("unexpected quiz %+v", body.Quiz)
	}
}

func TestCreateQuizRejectsStudents(t *testing.T) {
	service := &stubQuizService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/quiz", strings.NewReader(quizBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newQuizApp(service, "student").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if service.called {
		t.Fatal("service should not be called for students")
	}
}

func TestCreateQuizValidatesBody(t *testing.T) {
	tests := map[string]string{
		"missing title":    `{"questions":[{"text":"q","options":[{"text":"a","is_correct":true},{"text":"b"}]}]}`,
		"no questions":     `{"title":"t","questions":[]}`,
		"unknown type":     `{"title":"t","questions":[{"text":"q","type":"essay"}]}`,
		"blank option":     `{"title":"t","questions":[{"text":"q","options":[{"text":""}]}]}`,
		"malformed json":   `{"title":`,
		"missing question": `{"title":"t","questions":[{"type":"short-answer"}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			service := &stubQuizService{}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/quiz", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := newQuizApp(service, "tutor").Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if service.called {
				t.Fatal("service should not be called")
			}
		})
	}
}

func TestCreateQuizMapsExistingQuizToConflict(t *testing.T) {
	service := &stubQuizService{err: services.ErrQuizExists}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/quiz", strings.NewReader(quizBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newQuizApp(service, "tutor").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestUpdateQuizReturnsOK(t *testing.T) {
	service := &stubQuizService{result: &models.Quiz{ID: 3, SessionID: 12}}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/12/quiz", strings.NewReader(quizBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newQuizApp(service, "tutor").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastInput.Title != "Fractions check" {
		t.Fatalf("unexpected input %+v", service.lastInput)
	}
}

func TestGetQuizMapsMissingQuizToNotFound(t *testing.T) {
	service := &stubQuizService{err: services.ErrQuizNotFound}

	resp, err := newQuizApp(service, "student").Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/12/quiz", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body["error"] != "Quiz not found" {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestGetQuizRejectsBadSessionID(t *testing.T) {
	service := &stubQuizService{}

	resp, err := newQuizApp(service, "tutor").Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc/quiz", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.called {
		t.Fatal("service should not be called")
	}
}
