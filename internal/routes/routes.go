package routes

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnroad/learnroad-api/internal/config"
	"github.com/learnroad/learnroad-api/internal/handlers"
	"github.com/learnroad/learnroad-api/internal/middleware"
	"github.com/learnroad/learnroad-api/internal/services"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes wires services and handlers onto app. rdb may be nil, in
// which case rate limiting stays in-process.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client) error {
	if cfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}

	var storageService services.StorageService
	if cfg.StorageEnabled() {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	gateway := services.NewSimulatedGateway(cfg.PaymentSuccessRate, nil)
	meetingLinks := services.NewMeetingLinkGenerator(cfg.MeetingBaseURL)

	sessionService := services.NewSessionService(db, meetingLinks, storageService, cfg.StoreTimeout)
	paymentService := services.NewPaymentService(db, gateway, cfg.PaymentCurrency, cfg.StoreTimeout)
	earningsService := services.NewEarningsService(db, cfg.PaymentCurrency, cfg.StoreTimeout)
	reviewService := services.NewReviewService(db, cfg.StoreTimeout)
	tutorService := services.NewTutorService(db, cfg.StoreTimeout)
	quizService := services.NewQuizService(db, cfg.StoreTimeout)
	noteService := services.NewNoteService(db, cfg.StoreTimeout)
	dashboardService := services.NewDashboardService(db, cfg.StoreTimeout)

	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	earningsHandler := handlers.NewEarningsHandler(earningsService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	tutorHandler := handlers.NewTutorHandler(tutorService)
	quizHandler := handlers.NewQuizHandler(quizService)
	noteHandler := handlers.NewNoteHandler(noteService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return fmt.Errorf("register docs routes: %w", err)
	}

	moneyLimiter := middleware.NewRateLimiter(rdb, middleware.PerMinute(cfg.RateLimitPerMinute))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.BookSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Patch("/:id", sessionHandler.UpdateSession)
	sessions.Post("/:id/files", sessionHandler.UploadFile)
	sessions.Get("/:id/files/:fileId/download", sessionHandler.DownloadFile)
	sessions.Post("/:id/quiz", quizHandler.CreateQuiz)
	sessions.Get("/:id/quiz", quizHandler.GetQuiz)
	sessions.Put("/:id/quiz", quizHandler.UpdateQuiz)
	sessions.Get("/:id/notes", noteHandler.GetNote)
	sessions.Put("/:id/notes", noteHandler.SaveNote)

	authProtected.Get("/dashboard", dashboardHandler.GetDashboard)

	authProtected.Post("/payments", moneyLimiter.Handler(), paymentHandler.CapturePayment)

	earnings := authProtected.Group("/earnings")
	earnings.Get("", earningsHandler.GetEarnings)
	earnings.Get("/balance", earningsHandler.GetBalance)
	earnings.Post("", moneyLimiter.Handler(), earningsHandler.Withdraw)

	reviews := authProtected.Group("/reviews")
	reviews.Post("", reviewHandler.SubmitReview)
	reviews.Get("", reviewHandler.ListReviews)

	tutors := authProtected.Group("/tutors")
	tutors.Get("", tutorHandler.ListTutors)
	tutors.Get("/profile", tutorHandler.GetOwnProfile)
	tutors.Put("/profile", tutorHandler.UpdateOwnProfile)
	tutors.Get("/:id", tutorHandler.GetTutor)

	return nil
}
