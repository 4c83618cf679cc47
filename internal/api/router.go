package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/requill-tracker/internal/middleware"
)

// NewRouter creates a new HTTP router with all routes
func NewRouter(h *Handler, auth *middleware.AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Public routes
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/sites", h.ListSites)

	protected := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth.Authenticate(fn))
	}

	// User routes
	protected("GET /api/v1/auth/profile", h.GetProfile)
	protected("POST /api/v1/auth/api-key/regenerate", h.RegenerateAPIKey)

	// Job routes
	protected("POST /api/v1/jobs/extract", h.ExtractJob)
	protected("POST /api/v1/jobs/preview", h.PreviewJob)
	protected("GET /api/v1/jobs/stats", h.JobStats)
	protected("POST /api/v1/jobs", h.CreateJob)
	protected("GET /api/v1/jobs", h.ListJobs)
	protected("GET /api/v1/jobs/{id}", h.GetJob)
	protected("PATCH /api/v1/jobs/{id}", h.UpdateJob)
	protected("DELETE /api/v1/jobs/{id}", h.DeleteJob)

	// Import task routes
	protected("POST /api/v1/imports", h.CreateImportTask)
	protected("GET /api/v1/imports", h.ListImportTasks)
	protected("GET /api/v1/imports/{id}", h.GetImportTask)
	protected("PUT /api/v1/imports/{id}", h.UpdateImportTask)
	protected("DELETE /api/v1/imports/{id}", h.DeleteImportTask)
	protected("POST /api/v1/imports/{id}/run", h.TriggerImportTask)
	protected("GET /api/v1/imports/{id}/executions", h.GetImportExecutions)
	protected("GET /api/v1/imports/{id}/executions/{execId}", h.GetImportExecution)

	// Apply global middleware
	return middleware.CORS(middleware.JSON(middleware.Logger(mux)))
}
