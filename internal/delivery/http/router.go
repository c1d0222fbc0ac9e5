package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/storefront-widgets/review-service/internal/config"
	"github.com/storefront-widgets/review-service/internal/delivery/http/handler"
	"github.com/storefront-widgets/review-service/internal/delivery/http/middleware"
	"github.com/storefront-widgets/review-service/internal/delivery/http/response"
	"github.com/storefront-widgets/review-service/internal/pkg/logger"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	reviewHandler *handler.ReviewHandler
	imageHandler  *handler.ImageHandler
	widgetHandler *handler.WidgetHandler
	uploadDir     string
	logger        *logger.Logger
	cfg           *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	reviewHandler *handler.ReviewHandler,
	imageHandler *handler.ImageHandler,
	widgetHandler *handler.WidgetHandler,
	uploadDir string,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		reviewHandler: reviewHandler,
		imageHandler:  imageHandler,
		widgetHandler: widgetHandler,
		uploadDir:     uploadDir,
		logger:        log,
		cfg:           cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Uploaded image files, addressed by the relative paths stored on image rows
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.uploadDir))))

	r.Route("/api", func(r chi.Router) {
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", rt.reviewHandler.List)
			r.Post("/", rt.reviewHandler.Create)
			r.Post("/excel-upload", rt.reviewHandler.ExcelUpload)
			r.Get("/excel-template", rt.reviewHandler.ExcelTemplate)
			r.Get("/{id}", rt.reviewHandler.GetByID)
			r.Put("/{id}", rt.reviewHandler.Update)
			r.Delete("/{id}", rt.reviewHandler.Delete)
			r.Patch("/{id}/visibility", rt.reviewHandler.SetVisibility)
			r.Post("/{id}/images", rt.imageHandler.Upload)
		})

		r.Delete("/images/{id}", rt.imageHandler.Delete)

		r.Get("/stats", rt.reviewHandler.Stats)

		r.Get("/widget/reviews/{product_no}", rt.widgetHandler.GetReviews)
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
