package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"demobank/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(bankHandler *handler.BankHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Login/registration entry point
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", bankHandler.Login)
		r.Post("/register", bankHandler.Register)
		r.Post("/resume", bankHandler.Resume)
		r.Post("/logout", bankHandler.Logout)
	})

	// Dashboard and actions
	r.Get("/dashboard", bankHandler.Dashboard)
	r.Post("/dashboard/sort", bankHandler.ToggleSort)
	r.Post("/transfers", bankHandler.Transfer)
	r.Post("/loans", bankHandler.Loan)

	return r
}
