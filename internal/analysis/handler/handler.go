package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/careerpath/careerpath-backend/internal/analysis/service"
	"github.com/careerpath/careerpath-backend/pkg/httputil"
	"github.com/careerpath/careerpath-backend/pkg/logger"
)

// AnalysisHandler handles HTTP requests for analysis jobs
type AnalysisHandler struct {
	service *service.AnalysisService
	log     *logger.Logger
}

func NewAnalysisHandler(svc *service.AnalysisService, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: svc,
		log:     log,
	}
}

// RegisterRoutes mounts the analysis routes on the router.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analyses", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/career-paths", h.GetCareerPaths)
		r.Post("/{id}/retry", h.Retry)
	})
}

type createAnalysisRequest struct {
	DocumentID string `json:"document_id" validate:"required,uuid4"`
}

// Create handles POST /api/v1/analyses
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAnalysisRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	userID := httputil.GetUserID(r.Context())
	job, err := h.service.Create(r.Context(), userID, req.DocumentID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, job)
}

// Get handles GET /api/v1/analyses/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	detail, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, detail)
}

// List handles GET /api/v1/analyses
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	jobs, total, err := h.service.List(r.Context(), userID, page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, jobs, &httputil.Meta{
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

// GetCareerPaths handles GET /api/v1/analyses/{id}/career-paths
func (h *AnalysisHandler) GetCareerPaths(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	recs, err := h.service.GetRecommendations(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, recs)
}

// Retry handles POST /api/v1/analyses/{id}/retry
func (h *AnalysisHandler) Retry(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	job, err := h.service.Retry(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusAccepted, job)
}
