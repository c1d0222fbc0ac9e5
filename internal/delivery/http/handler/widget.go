package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-widgets/review-service/internal/config"
	"github.com/storefront-widgets/review-service/internal/delivery/http/request"
	"github.com/storefront-widgets/review-service/internal/delivery/http/response"
	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/usecase/widget"
)

// WidgetHandler serves the public widget endpoint embedded in storefront
// product pages. No authentication; only visible reviews ever leave here.
type WidgetHandler struct {
	service *widget.Service
	cfg     config.WidgetConfig
	logger  *logger.Logger
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(service *widget.Service, cfg config.WidgetConfig, log *logger.Logger) *WidgetHandler {
	return &WidgetHandler{
		service: service,
		cfg:     cfg,
		logger:  log,
	}
}

// GetReviews handles GET /api/widget/reviews/{product_no}
// @Summary Public widget review page with aggregates
// @Tags Widget
// @Produce json
// @Param product_no path string true "Product number"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Reviews per page (max 50)" default(5)
// @Param sort query string false "latest | rating_high | rating_low" default(latest)
// @Param photo_only query bool false "Only reviews owning at least one image"
// @Success 200 {object} domain.WidgetPage
// @Failure 400 {object} map[string]string "Malformed sort, photo_only or pagination value"
// @Router /widget/reviews/{product_no} [get]
func (h *WidgetHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	productNo := strings.TrimSpace(chi.URLParam(r, "product_no"))
	if productNo == "" {
		response.Error(w, http.StatusBadRequest, "product_no is required")
		return
	}

	page, perPage, err := request.GetPageParams(r, h.cfg.DefaultPerPage, h.cfg.MaxPerPage)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid pagination values")
		return
	}

	sort, err := domain.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid sort value")
		return
	}

	photoOnly, err := request.GetBoolQuery(r, "photo_only")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid photo_only value")
		return
	}

	result, err := h.service.GetReviews(r.Context(), domain.WidgetQuery{
		ProductNo: productNo,
		Page:      page,
		PerPage:   perPage,
		Sort:      sort,
		PhotoOnly: photoOnly,
	})
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Success(w, result)
}

// handleError handles service layer errors. An unknown product is not an
// error on this path; it comes back as an empty page from the service.
func (h *WidgetHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid input")
	default:
		h.logger.Error("Internal error in widget handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
