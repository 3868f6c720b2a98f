package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"demobank/internal/service"
	"demobank/internal/util" // For custom errors
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 10 * time.Second

// BankHandler handles HTTP requests for the demo bank.
type BankHandler struct {
	service service.BankService
	logger  *slog.Logger
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(svc service.BankService, logger *slog.Logger) *BankHandler {
	return &BankHandler{
		service: svc,
		logger:  logger,
	}
}

// Helper function to send JSON responses.
func (h *BankHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *BankHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrValidation):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		message = "Invalid username or PIN"
	case util.IsError(err, util.ErrNoSession):
		statusCode = http.StatusUnauthorized
		message = "No active session"
	case util.IsError(err, util.ErrAccountNotFound):
		statusCode = http.StatusNotFound
		message = "Account not found"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case util.IsError(err, util.ErrSameAccountTransfer):
		statusCode = http.StatusBadRequest
		message = "Cannot transfer to the same account"
	case util.IsError(err, util.ErrMalformedState):
		// Fatal to the session: the client must return to the login page.
		statusCode = http.StatusInternalServerError
		message = "Stored account data is corrupted, please log in again"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// sessionToken extracts the bearer token identifying the session.
func sessionToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	return strings.TrimPrefix(auth, "Bearer ")
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// Login handles the login request.
// POST /auth/login
func (h *BankHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}
	if req.Username == "" || req.PIN == "" {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	session, dashboard, err := h.service.Login(r.Context(), req.Username, req.PIN)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":     session.Token,
		"dashboard": dashboard,
	})
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FullName       string          `json:"full_name"`
	PIN            string          `json:"pin"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// Register handles account creation and immediate login.
// POST /auth/register
func (h *BankHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	session, dashboard, err := h.service.Register(r.Context(), req.FullName, req.PIN, req.InitialBalance)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"token":     session.Token,
		"dashboard": dashboard,
	})
}

// Resume re-opens a session from the persisted logged-in user.
// POST /auth/resume
func (h *BankHandler) Resume(w http.ResponseWriter, r *http.Request) {
	session, dashboard, err := h.service.Resume(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token":     session.Token,
		"dashboard": dashboard,
	})
}

// Logout ends the session. The confirmation prompt is a client concern;
// a declined confirmation simply never reaches this endpoint.
// POST /auth/logout
func (h *BankHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionToken(r)); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Dashboard returns the recomputed view for the session's account.
// GET /dashboard
func (h *BankHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), sessionToken(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, dashboard)
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Transfer moves money from the session's account to another account.
// POST /transfers
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}
	if req.To == "" {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	dashboard, err := h.service.Transfer(r.Context(), sessionToken(r), req.To, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, dashboard)
}

// LoanRequest represents the request body for a loan.
type LoanRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// Loan requests a loan; the movement lands after a processing delay.
// POST /loans
func (h *BankHandler) Loan(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrValidation)
		return
	}

	if err := h.service.Loan(r.Context(), sessionToken(r), req.Amount); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Loan approved, processing"})
}

// ToggleSort flips the movement list between chronological and by-amount
// presentation.
// POST /dashboard/sort
func (h *BankHandler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.ToggleSort(r.Context(), sessionToken(r))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, dashboard)
}
