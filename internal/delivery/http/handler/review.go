package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/storefront-widgets/review-service/internal/delivery/http/request"
	"github.com/storefront-widgets/review-service/internal/delivery/http/response"
	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/usecase/review"
)

// ReviewHandler handles staff-facing HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductNo    string `json:"product_no" validate:"required,min=1"`
	ProductName  string `json:"product_name"`
	Author       string `json:"author" validate:"required,min=1,max=100"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Title        string `json:"title"`
	Content      string `json:"content" validate:"required,min=1"`
	IsVisible    *bool  `json:"is_visible"`
	DisplayOrder int    `json:"display_order"`
}

// VisibilityRequest represents the request body for a visibility toggle
type VisibilityRequest struct {
	IsVisible *bool `json:"is_visible"`
}

// Create handles POST /api/reviews
// @Summary Create a new review
// @Tags Reviews
// @Accept json
// @Produce json
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} domain.Review
// @Failure 400 {object} map[string]string "Invalid request body"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Reviews are visible unless explicitly created hidden
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	rev := &domain.Review{
		ProductNo:    req.ProductNo,
		ProductName:  req.ProductName,
		Author:       req.Author,
		Rating:       req.Rating,
		Title:        req.Title,
		Content:      req.Content,
		IsVisible:    visible,
		DisplayOrder: req.DisplayOrder,
	}

	if err := h.service.Create(r.Context(), rev); err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, rev)
}

// GetByID handles GET /api/reviews/{id}
// @Summary Get a single review with its images
// @Tags Reviews
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} domain.Review
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	rev, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rev)
}

// List handles GET /api/reviews
// @Summary List reviews for the staff dashboard (hidden included)
// @Tags Reviews
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param product_no query string false "Filter by product"
// @Param search query string false "Substring match on author/title/content"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Out-of-range pagination values"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := request.GetPageParams(r, 20, 100)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid pagination values")
		return
	}

	filter := domain.ReviewFilter{
		ProductNo: strings.TrimSpace(r.URL.Query().Get("product_no")),
		Search:    strings.TrimSpace(r.URL.Query().Get("search")),
	}

	reviews, total, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Paginated(w, reviews, total, page, perPage)
}

// Update handles PUT /api/reviews/{id}
// @Summary Partially update a review (only supplied fields mutate)
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param review body domain.ReviewUpdate true "Fields to update"
// @Success 200 {object} domain.Review
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var upd domain.ReviewUpdate
	if err := request.DecodeJSON(r, &upd); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rev, err := h.service.Update(r.Context(), id, &upd)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rev)
}

// SetVisibility handles PATCH /api/reviews/{id}/visibility
// @Summary Toggle review visibility
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param body body VisibilityRequest true "Visibility flag"
// @Success 200 {object} domain.Review
// @Failure 400 {object} map[string]string "Missing is_visible field"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/visibility [patch]
func (h *ReviewHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req VisibilityRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IsVisible == nil {
		response.Error(w, http.StatusBadRequest, "is_visible field is required")
		return
	}

	rev, err := h.service.SetVisibility(r.Context(), id, *req.IsVisible)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, rev)
}

// Delete handles DELETE /api/reviews/{id}
// @Summary Delete a review, its image rows and their backing files
// @Tags Reviews
// @Param id path int true "Review ID"
// @Success 204 "Review deleted"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// Stats handles GET /api/stats
// @Summary Staff dashboard statistics
// @Tags Reviews
// @Produce json
// @Success 200 {object} domain.ReviewStats
// @Router /stats [get]
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, stats)
}

// ExcelUpload handles POST /api/reviews/excel-upload
// @Summary Bulk-import reviews from an .xlsx file
// @Tags Reviews
// @Accept mpfd
// @Produce json
// @Param file formData file true "xlsx file"
// @Success 200 {object} review.ExcelImportResult
// @Failure 400 {object} map[string]string "Not an xlsx file or unreadable"
// @Router /reviews/excel-upload [post]
func (h *ReviewHandler) ExcelUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		response.Error(w, http.StatusBadRequest, "Only .xlsx files are accepted")
		return
	}

	result, err := h.service.ImportExcel(r.Context(), file)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExcelTemplate handles GET /api/reviews/excel-template
// @Summary Download the bulk-import template
// @Tags Reviews
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /reviews/excel-template [get]
func (h *ReviewHandler) ExcelTemplate(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.BuildTemplate()
	if err != nil {
		h.handleError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="review_import_template.xlsx"`)

	if err := f.Write(w); err != nil {
		h.logger.Error("Failed to stream Excel template", err)
	}
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ReviewHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Review not found")
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in review handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
