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

type stubReviewService struct {
	submitResult *services.ReviewResult
	submitErr    error
	listResult   []models.Review
	listErr      error
	submitted    bool
	lastInput    services.SubmitReviewInput
	lastTutorID  int64
}

func (s *stubReviewService) Submit(_ context.Context, _ services.Actor, input services.SubmitReviewInput) (*services.ReviewResult, error) {
	s.submitted = true
	s.lastInput = input
	return s.submitResult, s.submitErr
}

func (s *stubReviewService) List(_ context.Context, tutorID int64) ([]models.Review, error) {
	s.lastTutorID = tutorID
	return s.listResult, s.listErr
}

func newReviewApp(service *stubReviewService) *fiber.App {
	handler := &ReviewHandler{service: service}
	app := fiber.New()
	app.Use(withIdentity("student", "42"))
	app.Post("/api/v1/reviews", handler.SubmitReview)
	app.Get("/api/v1/reviews", handler.ListReviews)
	return app
}

func TestSubmitReviewReturnsCreated(t *testing.T) {
	service := &stubReviewService{
		submitResult: &services.ReviewResult{
			Review:      &models.Review{ID: 1, Rating: 5},
			Rating:      4.5,
			ReviewCount: 2,
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{
		"tutor_id": 7,
		"session_id": 12,
		"rating": 5,
		"comment": "clear explanations"
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newReviewApp(service).Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastInput.Rating != 5 || service.lastInput.SessionID != 12 {
		t.Fatalf("unexpected input %+v", service.lastInput)
	}
}

func TestSubmitReviewRejectsOutOfRangeRating(t *testing.T) {
	service := &stubReviewService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{
		"tutor_id": 7,
		"session_id": 12,
		"rating": 6
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newReviewApp(service).Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.submitted {
		t.Fatal("service should not be called")
	}
}

func TestSubmitReviewDuplicateReturnsConflict(t *testing.T) {
	service := &stubReviewService{submitErr: services.ErrDuplicateReview}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader(`{
		"tutor_id": 7,
		"session_id": 12,
		"rating": 3
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newReviewApp(service).Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListReviewsRequiresTutorID(t *testing.T) {
	service := &stubReviewService{listResult: []models.Review{{ID: 1}}}
	app := newReviewApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reviews?tutor_id=7", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Reviews) != 1 || service.lastTutorID != 7 {
		t.Fatalf("unexpected reviews %+v for tutor %d", body.Reviews, service.lastTutorID)
	}
}
