// Package followups provides the lead funnel and follow-up scheduling module.
package followups

import (
	apphttp "funnel_backend/internal/http"
	"funnel_backend/internal/followups/handler"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/internal/followups/service"
	"funnel_backend/platform/events"
	"funnel_backend/platform/httpkit"
	"funnel_backend/platform/logger"
	"funnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the followups domain module.
type Module struct {
	handler         *handler.Handler
	templateHandler *handler.TemplateHandler
	service         *service.Service
	reconciler      *service.Reconciler
	repo            *repository.Repository
}

// NewModule creates a new followups module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	reconciler := service.NewReconciler(repo, repo, log)
	svc := service.New(repo, reconciler, eventBus)
	tplSvc := service.NewTemplateService(repo)

	return &Module{
		handler:         handler.New(svc, val),
		templateHandler: handler.NewTemplateHandler(tplSvc, val),
		service:         svc,
		reconciler:      reconciler,
		repo:            repo,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "followups"
}

// Service returns the lead service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the dispatcher composition root.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
	m.templateHandler.RegisterRoutes(ctx.V1.Group("/templates"))

	ctx.V1.GET("/followups/stats", func(c *gin.Context) {
		result, err := m.service.QueueStats(c.Request.Context())
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, result)
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
