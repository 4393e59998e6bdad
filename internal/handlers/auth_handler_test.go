package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// Requests rejected during binding never reach the database.
func TestRegisterValidatesRequest(t *testing.T) {
	handler := &AuthHandler{jwtSecret: "secret"}
	app := fiber.New()
	app.Post("/api/auth/register", handler.Register)

	cases := map[string]string{
		"bad email":  `{"name":"Ada","email":"nope","password":"longenough","role":"student"}`,
		"short pass": `{"name":"Ada","email":"ada@example.com","password":"short","role":"student"}`,
		"bad role":   `{"name":"Ada","email":"ada@example.com","password":"longenough","role":"admin"}`,
		"no name":    `{"email":"ada@example.com","password":"longenough","role":"tutor"}`,
		"not json":   `{`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if body["error"] == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestLoginValidatesRequest(t *testing.T) {
	handler := &AuthHandler{jwtSecret: "secret"}
	app := fiber.New()
	app.Post("/api/auth/login", handler.Login)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMeRequiresIdentity(t *testing.T) {
	handler := &AuthHandler{jwtSecret: "secret"}
	app := fiber.New()
	app.Get("/api/auth/me", handler.Me)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
