package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/service"
)

// CollegeHandler serves the college endpoints.
type CollegeHandler struct {
	svc *service.CollegeService
	log *zap.Logger
}

// NewCollegeHandler constructs a CollegeHandler.
func NewCollegeHandler(svc *service.CollegeService, log *zap.Logger) *CollegeHandler {
	return &CollegeHandler{svc: svc, log: log}
}

// Create handles POST /api/colleges
func (h *CollegeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCollegeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	college, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, college)
}

// List handles GET /api/colleges
func (h *CollegeHandler) List(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if colleges == nil {
		colleges = []model.College{}
	}
	writeJSON(w, http.StatusOK, colleges)
}

// Search handles GET /api/colleges/search
func (h *CollegeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.CollegeSearchRequest{
		Location:    q.Get("location"),
		SearchQuery: q.Get("searchQuery"),
		SortBy:      q.Get("sortBy"),
		Cursor:      q.Get("cursor"),
	}
	limit, err := parseInt(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}
	if limit != nil {
		req.Limit = *limit
	}

	res, err := h.svc.Search(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
