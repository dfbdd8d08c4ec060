package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/service"
)

// EventHandler holds the HTTP handlers for events and registrations.
type EventHandler struct {
	svc *service.EventService
	log *zap.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// SearchEvents handles GET /api/events/search
//
// Query parameters: types (repeated or comma separated), startDate and
// endDate (RFC 3339), minAttendees, searchQuery, sortBy, limit, cursor.
func (h *EventHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.EventSearchRequest{
		Types:       splitList(q["types"]),
		SearchQuery: q.Get("searchQuery"),
		SortBy:      q.Get("sortBy"),
		Cursor:      q.Get("cursor"),
	}

	var err error
	if req.StartDate, err = parseTime(q.Get("startDate")); err != nil {
		writeError(w, http.StatusBadRequest, "startDate: "+err.Error())
		return
	}
	if req.EndDate, err = parseTime(q.Get("endDate")); err != nil {
		writeError(w, http.StatusBadRequest, "endDate: "+err.Error())
		return
	}
	if req.MinAttendees, err = parseInt(q.Get("minAttendees")); err != nil {
		writeError(w, http.StatusBadRequest, "minAttendees: "+err.Error())
		return
	}
	limit, err := parseInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}
	if limit != nil {
		req.Limit = *limit
	}

	res, err := h.svc.SearchEvents(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Recommend handles GET /api/events/{id}/recommended
func (h *EventHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.Recommend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// Register handles POST /api/events/{id}/rsvp
// Performs a concurrency-safe registration for the specified event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reg, err := h.svc.Register(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// Unregister handles POST /api/events/{id}/unrsvp
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req model.UnregisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Unregister(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations handles GET /api/events/{id}/registrations
// Returns all registrations for a given event.
func (h *EventHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.ListRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// IsRegistered handles GET /api/events/{id}/registered?userId=
func (h *EventHandler) IsRegistered(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	res, err := h.svc.IsRegistered(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// UpdateRegistrationStatus handles PATCH /api/registrations/{id}/status
func (h *EventHandler) UpdateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateRegistrationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reg, err := h.svc.UpdateRegistrationStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// ListUserRegistrations handles GET /api/users/registrations?email=
func (h *EventHandler) ListUserRegistrations(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	regs, err := h.svc.ListUserRegistrations(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	if regs == nil {
		regs = []model.Registration{}
	}

	writeJSON(w, http.StatusOK, regs)
}

// splitList flattens repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
