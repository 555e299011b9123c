package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
	"github.com/abustosp/app-presupuesto/internal/core/service"
	"github.com/abustosp/app-presupuesto/internal/telemetry/logger"
)

// HeaderErrorCode carries the domain error code of a failed request.
const HeaderErrorCode = "X-Error-Code"

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

// notFoundDetail is the detail text the existing web client matches on.
const notFoundDetail = "Presupuesto no encontrado"

// retryAfterSeconds is sent with durable layer failures.
const retryAfterSeconds = "1"

// Pinger reports whether the durable layer is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the budget API.
type Handler struct {
	budgets *service.BudgetService
	pinger  Pinger
	logger  *slog.Logger
	maxBody int64
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxBodyBytes sets the request body cap. Non-positive values keep the
// default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// New creates a Handler. pinger may be nil, in which case readiness always
// succeeds.
func New(budgets *service.BudgetService, pinger Pinger, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		budgets: budgets,
		pinger:  pinger,
		logger:  log,
		maxBody: DefaultMaxBodyBytes,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.Register(h.mux, nil)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Register adds every API route to mux. wrap, when non-nil, decorates each
// route handler; it runs after routing so r.Pattern is available to it.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	routes := []struct {
		pattern string
		fn      http.HandlerFunc
	}{
		{"GET /api/health", h.handleHealth},
		{"GET /api/ready", h.handleReady},
		{"GET /api/budgets", h.handleListBudgets},
		{"POST /api/budgets", h.handleCreateBudget},
		{"GET /api/budgets/{id}", h.handleGetBudget},
		{"PUT /api/budgets/{id}", h.handleUpdateBudget},
		{"DELETE /api/budgets/{id}", h.handleDeleteBudget},
	}
	for _, rt := range routes {
		var hh http.Handler = rt.fn
		if wrap != nil {
			hh = wrap(hh)
		}
		mux.Handle(rt.pattern, hh)
	}
}

// writeJSON writes v as the bare response body.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// handleServiceError logs server-side failures and writes the error body.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if status := StatusOf(err); status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"request_id", logger.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	WriteError(w, r, err)
}

// WriteError writes the error body for err. Errors that are not domain
// errors are reported as internal without exposing their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternalServer
	}

	var detail any
	switch {
	case de.Is(domain.ErrBudgetNotFound):
		detail = notFoundDetail
	case de.Is(domain.ErrInternalServer):
		// Panic values and causes stay in the log.
	case de.Details != "":
		detail = de.Details
	}
	if domain.IsRetryable(de) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeErrorBody(w, r, StatusOf(de), de.Code, de.Message, detail)
}

func writeErrorBody(w http.ResponseWriter, r *http.Request, status int, code, message string, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(HeaderErrorCode, code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:      code,
		Message:   message,
		Detail:    detail,
		RequestID: logger.RequestIDFromContext(r.Context()),
	})
}

// StatusOf maps an error to its HTTP status. The last four digits of a
// domain code carry the status class.
func StatusOf(err error) int {
	code := domain.GetErrorCode(err)
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4000"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4130"):
		return http.StatusRequestEntityTooLarge
	case strings.HasSuffix(code, "-4220"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
