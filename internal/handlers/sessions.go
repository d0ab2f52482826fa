package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/cassidycr/accildatabase/internal/app"
	"github.com/cassidycr/accildatabase/internal/lifecycle"
	"github.com/cassidycr/accildatabase/internal/metrics"
	"github.com/cassidycr/accildatabase/internal/models"
)

type SessionHandler struct {
	service *app.Service
}

func NewSessionHandler(service *app.Service) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	var input models.CreateSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateSession(r.Context(), &input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.SessionsCreated.WithLabelValues(
		input.Campus,
		string(input.Type),
	).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"id": id,
	}); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

func (h *SessionHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	filter := app.ListFilter{
		Campus:    r.URL.Query().Get("campus"),
		Librarian: r.URL.Query().Get("librarian"),
	}
	if raw := r.URL.Query().Get("class"); raw != "" {
		class, ok := lifecycle.ParseClass(raw)
		if !ok {
			http.Error(w, "Invalid class filter", http.StatusBadRequest)
			return
		}
		filter.Class = class
	}

	rows, err := h.service.ListSessions(filter)
	if err != nil {
		logger.Error.Printf("Failed to list sessions: %v", err)
		http.Error(w, "Failed to fetch sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"rows": rows,
	}); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *SessionHandler) HandleConfirmSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input app.ConfirmSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmSession(r.Context(), id, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.SessionTransitions.WithLabelValues("confirm").Inc()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *SessionHandler) HandleEditSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input app.EditSessionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.EditSession(r.Context(), id, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.SessionTransitions.WithLabelValues("edit").Inc()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *SessionHandler) HandleCancelSession(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return
	}

	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	// Body is optional; an empty one means the default reason.
	var input struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CancelSession(r.Context(), id, input.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.SessionTransitions.WithLabelValues("cancel").Inc()

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *SessionHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			"200",
		).Observe(duration)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusNotFound)
		return
	}

	classes, ok := classFilters(w, r)
	if !ok {
		return
	}

	dash, err := h.service.Dashboard(r.Context(), classes...)
	if err != nil {
		logger.Error.Printf("Failed to build dashboard: %v", err)
		http.Error(w, "Failed to build dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"stats": dash,
	}); err != nil {
		logger.Error.Printf("Failed to encode dashboard: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// classFilters reads the ?classes= query. Absent means confirmed only, the
// usual reporting view; "all" selects everything.
func classFilters(w http.ResponseWriter, r *http.Request) ([]lifecycle.Class, bool) {
	raw := r.URL.Query().Get("classes")
	if raw == "" {
		return []lifecycle.Class{lifecycle.ClassConfirmed}, true
	}
	if raw == "all" {
		return nil, true
	}

	var classes []lifecycle.Class
	for _, part := range strings.Split(raw, ",") {
		class, ok := lifecycle.ParseClass(part)
		if !ok {
			http.Error(w, "Invalid class filter", http.StatusBadRequest)
			return nil, false
		}
		classes = append(classes, class)
	}
	return classes, true
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid session id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, app.ErrNotFound):
		http.Error(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, app.ErrSessionCanceled):
		http.Error(w, "Session is canceled", http.StatusConflict)
	default:
		logger.Error.Printf("Request failed: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
