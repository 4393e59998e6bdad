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
	"github.com/learnroad/learnroad-api/internal/repository"
	"github.com/learnroad/learnroad-api/internal/services"
)

type stubTutorService struct {
	listResult   []models.TutorListItem
	listTotal    int
	detail       *models.TutorDetail
	detailErr    error
	profile      *models.TutorProfile
	profileErr   error
	lastFilter   repository.TutorListFilter
	lastUpdate   services.UpdateTutorProfileInput
	updateCalled bool
}

func (s *stubTutorService) List(_ context.Context, filter repository.TutorListFilter) ([]models.TutorListItem, int, error) {
	s.lastFilter = filter
	return s.listResult, s.listTotal, nil
}

func (s *stubTutorService) Detail(_ context.Context, _ int64) (*models.TutorDetail, error) {
	return s.detail, s.detailErr
}

func (s *stubTutorService) GetOwnProfile(_ context.Context, _ services.Actor) (*models.TutorProfile, error) {
	return s.profile, s.profileErr
}

func (s *stubTutorService) UpdateOwnProfile(_ context.Context, _ services.Actor, input services.UpdateTutorProfileInput) (*models.TutorProfile, error) {
	s.updateCalled = true
	s.lastUpdate = input
	return s.profile, s.profileErr
}

func newTutorApp(service *stubTutorService, role string) *fiber.App {
	handler := &TutorHandler{service: service}
	app := fiber.New()
	app.Use(withIdentity(role, "7"))
	app.Get("/api/v1/tutors/profile", handler.GetOwnProfile)
	app.Put("/api/v1/tutors/profile", handler.UpdateOwnProfile)
	app.Get("/api/v1/tutors", handler.ListTutors)
	app.Get("/api/v1/tutors/:id", handler.GetTutor)
	return app
}

func TestListTutorsAppliesPaginationAndFilters(t *testing.T) {
	service := &stubTutorService{
		listResult: []models.TutorListItem{{UserID: 7, Name: "Ada", Subjects: []string{"Math"}}},
		listTotal:  21,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutors?subject=Math&page=3&limit=200&min_rating=4", nil)
	resp, err := newTutorApp(service, "student").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFilter.Limit != maxPageLimit || service.lastFilter.Offset != 2*maxPageLimit {
		t.Fatalf("unexpected paging %+v", service.lastFilter)
	}
	if service.lastFilter.Subject != "Math" || service.lastFilter.MinRating == nil || *service.lastFilter.MinRating != 4 {
		t.Fatalf("unexpected filter %+v", service.lastFilter)
	}

	var body struct {
		Tutors     []models.TutorListItem `json:"tutors"`
		Pagination models.PaginationMeta  `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Pagination.Total != 21 || body.Pagination.TotalPages != 1 || len(body.Tutors) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestListTutorsRejectsInvalidRating(t *testing.T) {
	resp, err := newTutorApp(&stubTutorService{}, "student").
		Test(httptest.NewRequest(http.MethodGet, "/api/v1/tutors?min_rating=abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetTutorReturnsNotFound(t *testing.T) {
	service := &stubTutorService{detailErr: services.ErrTutorNotFound}

	resp, err := newTutorApp(service, "student").Test(httptest.NewRequest(http.MethodGet, "/api/v1/tutors/99", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetOwnProfileForbiddenForStudents(t *testing.T) {
	service := &stubTutorService{profileErr: services.ErrForbidden}

	resp, err := newTutorApp(service, "student").Test(httptest.NewRequest(http.MethodGet, "/api/v1/tutors/profile", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestUpdateOwnProfileForwardsAvailability(t *testing.T) {
	service := &stubTutorService{profile: &models.TutorProfile{UserID: 7, HourlyRate: 40}}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/tutors/profile", strings.NewReader(`{
		"subjects": ["Math", "Physics"],
		"hourly_rate": 40,
		"availability": [{"day": "Monday", "start_time": "09:00", "end_time": "12:00"}],
		"bio": "PhD student"
	}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newTutorApp(service, "tutor").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(service.lastUpdate.Availability) != 1 || service.lastUpdate.Availability[0].Day != "Monday" {
		t.Fatalf("unexpected availability %+v", service.lastUpdate.Availability)
	}
	if len(service.lastUpdate.Subjects) != 2 {
		t.Fatalf("unexpected subjects %+v", service.lastUpdate.Subjects)
	}
}

func TestUpdateOwnProfileRejectsNegativeRate(t *testing.T) {
	service := &stubTutorService{}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/tutors/profile", strings.NewReader(`{"hourly_rate": -1}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := newTutorApp(service, "tutor").Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.updateCalled {
		t.Fatal("service should not be called")
	}
}
