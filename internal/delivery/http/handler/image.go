package handler

import (
	"errors"
	"net/http"

	"github.com/storefront-widgets/review-service/internal/delivery/http/request"
	"github.com/storefront-widgets/review-service/internal/delivery/http/response"
	"github.com/storefront-widgets/review-service/internal/domain"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
	"github.com/storefront-widgets/review-service/internal/usecase/image"
)

// Multipart form memory threshold; larger files spill to temp files.
const maxUploadMemory = 32 << 20

// ImageHandler handles HTTP requests for review images
type ImageHandler struct {
	service *image.Service
	logger  *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(service *image.Service, log *logger.Logger) *ImageHandler {
	return &ImageHandler{
		service: service,
		logger:  log,
	}
}

// Upload handles POST /api/reviews/{id}/images
// @Summary Upload images for a review
// @Tags Images
// @Accept mpfd
// @Produce json
// @Param id path int true "Review ID"
// @Param files formData file true "Image files"
// @Success 201 {array} domain.Image
// @Failure 400 {object} map[string]string "Invalid file or image cap exceeded"
// @Failure 404 {object} map[string]string "Review not found"
// @Router /reviews/{id}/images [post]
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reviewID, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]image.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.Error(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		defer f.Close()

		uploads = append(uploads, image.Upload{
			Reader:      f,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	images, err := h.service.Upload(r.Context(), reviewID, uploads)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.Created(w, images)
}

// Delete handles DELETE /api/images/{id}
// @Summary Delete an image and its backing file
// @Tags Images
// @Param id path int true "Image ID"
// @Success 204 "Image deleted"
// @Failure 404 {object} map[string]string "Image not found"
// @Router /images/{id} [delete]
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}

	response.NoContent(w)
}

// handleError handles service layer errors and returns appropriate HTTP responses
func (h *ImageHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Review or image not found")
	case errors.Is(err, domain.ErrTooManyImages):
		response.Error(w, http.StatusBadRequest, "Image limit for this review exceeded")
	case errors.Is(err, domain.ErrInvalidFile), errors.Is(err, domain.ErrInvalidInput):
		response.Error(w, http.StatusBadRequest, "Invalid upload")
	default:
		h.logger.Error("Internal error in image handler", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
