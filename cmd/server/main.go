package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"meducare/internal/config"
	"meducare/internal/database"
	"meducare/internal/handlers"
	"meducare/internal/repository"
	"meducare/internal/security"
	"meducare/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	docStore := repository.NewDocumentStore(db)

	// Initialize services
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, tokens, cfg.SessionDuration)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	heartsService := service.NewHeartsService(docStore)
	progressService := service.NewProgressService(docStore)
	heartsService.SetProgressMirror(progressService)
	progressService.SetHeartsGranter(heartsService)

	streakService := service.NewStreakService(docStore)
	statsService := service.NewStatsService(docStore)
	quizService := service.NewQuizService(docStore, heartsService, progressService, streakService, statsService)

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(tokens)
	authLimiter := security.NewRateLimiter(10, time.Minute)
	authHandler := handlers.NewAuthHandler(authService, emailService, googleOAuth, cfg.AppBaseURL)
	heartsHandler := handlers.NewHeartsHandler(heartsService)
	progressHandler := handlers.NewProgressHandler(progressService)
	quizHandler := handlers.NewQuizHandler(quizService, progressService)
	statsHandler := handlers.NewStatsHandler(streakService, statsService)

	// Setup routes
	mux := http.NewServeMux()

	// Account routes
	mux.HandleFunc("POST /api/auth/register", handlers.RateLimit(authLimiter, authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", handlers.RateLimit(authLimiter, authHandler.Login))
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/auth/password-reset/request", handlers.RateLimit(authLimiter, authHandler.RequestPasswordReset))
	mux.HandleFunc("GET /api/auth/password-reset/validate", authHandler.ValidatePasswordResetToken)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", handlers.RateLimit(authLimiter, authHandler.ResetPassword))
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)

	// Hearts routes
	mux.HandleFunc("GET /api/hearts", middleware.RequireAuth(heartsHandler.Get))
	mux.HandleFunc("GET /api/hearts/timer", middleware.RequireAuth(heartsHandler.Timer))
	mux.HandleFunc("POST /api/hearts/consume", middleware.RequireAuth(heartsHandler.Consume))
	mux.HandleFunc("GET /api/hearts/can-play", middleware.RequireAuth(heartsHandler.CanPlay))

	// Progress routes
	mux.HandleFunc("GET /api/progress", middleware.RequireAuth(progressHandler.Get))
	mux.HandleFunc("POST /api/progress/xp", middleware.RequireAuth(progressHandler.AddXP))
	mux.HandleFunc("GET /api/progress/unlocks/{difficulty}/{category}", middleware.RequireAuth(progressHandler.Unlocks))

	// Quiz routes
	mux.HandleFunc("GET /api/quizzes/{difficulty}", middleware.RequireAuth(quizHandler.ListDifficulty))
	mux.HandleFunc("GET /api/quizzes/{difficulty}/{category}", middleware.RequireAuth(quizHandler.List))
	mux.HandleFunc("GET /api/quizzes/{difficulty}/{category}/{quiz}", middleware.RequireAuth(quizHandler.Get))
	mux.HandleFunc("POST /api/quizzes/{difficulty}/{category}/{quiz}/attempts", middleware.RequireAuth(quizHandler.SubmitAttempt))
	mux.HandleFunc("GET /api/attempts", middleware.RequireAuth(quizHandler.ListAttempts))

	// Streak and stats routes
	mux.HandleFunc("GET /api/streak", middleware.RequireAuth(statsHandler.Streak))
	mux.HandleFunc("GET /api/stats", middleware.RequireAuth(statsHandler.Stats))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup of expired sessions and reset tokens
	go cleanupExpiredCredentials(authService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredCredentials periodically removes expired sessions and
// password reset tokens
func cleanupExpiredCredentials(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}

		if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
			log.Printf("Error cleaning up expired reset tokens: %v", err)
		} else {
			log.Println("Expired reset tokens cleaned up")
		}
	}
}
