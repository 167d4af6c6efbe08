package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/formula-lab/crm-api/internal/app"
	"github.com/formula-lab/crm-api/internal/auth"
	"github.com/formula-lab/crm-api/internal/config"
	"github.com/formula-lab/crm-api/internal/database"
	"github.com/formula-lab/crm-api/internal/domain"
	"github.com/formula-lab/crm-api/internal/http/handler"
	"github.com/formula-lab/crm-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/formula-lab/crm-api/docs" // Import generated swagger docs
)

// Handlers bundles every HTTP handler the router mounts
type Handlers struct {
	Auth         *handler.AuthHandler
	Contact      *handler.ContactHandler
	Request      *handler.RequestHandler
	Company      *handler.CompanyHandler
	Customer     *handler.CustomerHandler
	Sync         *handler.SyncHandler
	Case         *handler.CaseHandler
	Order        *handler.OrderHandler
	Conversation *handler.ConversationHandler
	Settings     *handler.SettingsHandler
	Messaging    *handler.MessagingHandler
	Audit        *handler.AuditHandler
	Stats        *handler.StatsHandler
	System       *handler.SystemHandler
}

// NewHandlers builds the handler set over the given services
func NewHandlers(svc *app.Services, maxUploadMB int64, logger *zap.Logger) Handlers {
	return Handlers{
		Auth:         handler.NewAuthHandler(logger),
		Contact:      handler.NewContactHandler(svc.Contacts, svc.Promotion, maxUploadMB, logger),
		Request:      handler.NewRequestHandler(svc.Requests, svc.Audit, maxUploadMB, logger),
		Company:      handler.NewCompanyHandler(svc.Companies, logger),
		Customer:     handler.NewCustomerHandler(svc.Customers, svc.Conversations, logger),
		Sync:         handler.NewSyncHandler(svc.Sync, logger),
		Case:         handler.NewCaseHandler(svc.Cases, svc.Orders, logger),
		Order:        handler.NewOrderHandler(svc.Orders, logger),
		Conversation: handler.NewConversationHandler(svc.Conversations, logger),
		Settings:     handler.NewSettingsHandler(svc.Settings, logger),
		Messaging:    handler.NewMessagingHandler(svc.Messaging, logger),
		Audit:        handler.NewAuditHandler(svc.Audit, logger),
		Stats:        handler.NewStatsHandler(svc.Stats, svc.Reminders, logger),
		System:       handler.NewSystemHandler(svc.Reset, svc.Audit, logger),
	}
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	db              *gorm.DB
	mongo           *mongo.Client
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	h               Handlers
}

// NewRouter creates the router. mongoClient may be nil when settings are
// stored in SQL.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	mongoClient *mongo.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		mongo:           mongoClient,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		h:               handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public website form
		r.With(rt.rateLimiter.LimitPublic).Post("/public/contact", rt.h.Contact.SubmitPublic)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.auditMiddleware.Audit)

			r.Get("/auth/me", rt.h.Auth.Me)
			r.Get("/auth/permissions", rt.h.Auth.Permissions)

			rt.contactRoutes(r)
			rt.requestRoutes(r)
			rt.customerRoutes(r)
			rt.pipelineRoutes(r)
			rt.conversationRoutes(r)
			rt.adminRoutes(r)
		})
	})

	return r
}

func (rt *Router) perm(p domain.PermissionType) func(http.Handler) http.Handler {
	return rt.authMiddleware.RequirePermission(p)
}

func (rt *Router) contactRoutes(r chi.Router) {
	h := rt.h.Contact
	r.Route("/contacts", func(r chi.Router) {
		r.With(rt.perm(domain.PermissionContactsRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionContactsWrite)).Post("/", h.Create)
		r.With(rt.perm(domain.PermissionContactsWrite)).Post("/import", h.Import)
		r.With(rt.perm(domain.PermissionContactsWrite)).Post("/bulk-status", h.BulkUpdateStatus)
		r.With(rt.perm(domain.PermissionContactsDelete)).Post("/bulk-delete", h.BulkDelete)
		r.With(rt.perm(domain.PermissionContactsRead)).Get("/{id}", h.GetByID)
		r.With(rt.perm(domain.PermissionContactsWrite)).Put("/{id}", h.Update)
		r.With(rt.perm(domain.PermissionContactsWrite)).Put("/{id}/status", h.UpdateStatus)
		r.With(rt.perm(domain.PermissionContactsDelete)).Delete("/{id}", h.Delete)
		r.With(rt.perm(domain.PermissionContactsRead)).Get("/{id}/promotion", h.PreviewPromotion)
		r.With(rt.perm(domain.PermissionRequestsWrite)).Post("/{id}/promote", h.Promote)
	})
}

func (rt *Router) requestRoutes(r chi.Router) {
	h := rt.h.Request
	r.Route("/requests", func(r chi.Router) {
		r.With(rt.perm(domain.PermissionRequestsRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionRequestsWrite)).Post("/", h.Create)
		r.With(rt.perm(domain.PermissionReportsExport)).Get("/export", h.Export)
		r.With(rt.perm(domain.PermissionRequestsRead)).Get("/number/{number}", h.GetByNumber)

		r.Route("/{id}", func(r chi.Router) {
			r.With(rt.perm(domain.PermissionRequestsRead)).Get("/", h.GetByID)
			r.With(rt.perm(domain.PermissionRequestsWrite)).Put("/", h.Update)
			r.With(rt.perm(domain.PermissionRequestsWrite)).Put("/status", h.UpdateStatus)
			// Super admin only; the service enforces it
			r.With(rt.perm(domain.PermissionRequestsDelete)).Delete("/", h.Delete)

			r.Group(func(r chi.Router) {
				r.Use(rt.perm(domain.PermissionRequestsWrite))
				r.Post("/notes", h.AddNote)
				r.Delete("/notes/{noteId}", h.DeleteNote)
				r.Post("/follow-ups", h.AddFollowUp)
				r.Post("/follow-ups/{followUpId}/complete", h.CompleteFollowUp)
				r.Post("/attachments", h.UploadAttachment)
				r.Delete("/attachments/{attachmentId}", h.DeleteAttachment)
			})
			r.With(rt.perm(domain.PermissionRequestsRead)).Get("/attachments", h.ListAttachments)
			r.With(rt.perm(domain.PermissionRequestsRead)).Get("/attachments/{attachmentId}", h.DownloadAttachment)
		})
	})
}

func (rt *Router) customerRoutes(r chi.Router) {
	r.Route("/companies", func(r chi.Router) {
		h := rt.h.Company
		r.With(rt.perm(domain.PermissionCustomersRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Post("/", h.Create)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Post("/recalculate-stats", h.RecalculateStats)
		r.With(rt.perm(domain.PermissionCustomersRead)).Get("/{id}", h.GetByID)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Put("/{id}", h.Update)
		r.With(rt.perm(domain.PermissionCustomersDelete)).Delete("/{id}", h.Delete)
	})

	r.Route("/customers", func(r chi.Router) {
		h := rt.h.Customer
		r.With(rt.perm(domain.PermissionCustomersRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Post("/", h.Create)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Post("/recalculate-stats", h.RecalculateStats)
		r.With(rt.perm(domain.PermissionCustomersRead)).Get("/{id}", h.GetByID)
		r.With(rt.perm(domain.PermissionCustomersWrite)).Put("/{id}", h.Update)
		r.With(rt.perm(domain.PermissionCustomersDelete)).Delete("/{id}", h.Delete)
		r.With(rt.perm(domain.PermissionConversationsRead)).Get("/{id}/conversations", h.ListConversations)
	})

	r.Route("/sync", func(r chi.Router) {
		h := rt.h.Sync
		r.Use(rt.perm(domain.PermissionSyncRun))
		r.Post("/run", h.RunBidirectional)
		r.Post("/companies/{id}", h.SyncCompany)
		r.Post("/customers/{id}", h.SyncCustomer)
		r.Get("/duplicates/customers", h.CustomerDuplicates)
		r.Get("/duplicates/companies", h.CompanyDuplicates)
		r.Post("/merge/customers", h.MergeCustomers)
		r.Post("/merge/companies", h.MergeCompanies)
	})
}

func (rt *Router) pipelineRoutes(r chi.Router) {
	r.Route("/cases", func(r chi.Router) {
		h := rt.h.Case
		r.With(rt.perm(domain.PermissionCasesRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionCasesWrite)).Post("/", h.Create)
		r.With(rt.perm(domain.PermissionCasesRead)).Get("/sla-breaches", h.ListSLABreaches)
		r.With(rt.perm(domain.PermissionCasesRead)).Get("/{id}", h.GetByID)
		r.With(rt.perm(domain.PermissionCasesRead)).Get("/{id}/sla", h.GetSLA)
		r.With(rt.perm(domain.PermissionCasesWrite)).Put("/{id}", h.Update)
		r.With(rt.perm(domain.PermissionCasesWrite)).Put("/{id}/status", h.UpdateStatus)
		r.With(rt.perm(domain.PermissionCasesWrite)).Post("/{id}/checklist/{itemId}/toggle", h.ToggleChecklistItem)
		r.With(rt.perm(domain.PermissionCasesWrite)).Delete("/{id}", h.Delete)
		r.With(rt.perm(domain.PermissionOrdersWrite)).Post("/{id}/order", h.CreateOrder)
	})

	r.Route("/orders", func(r chi.Router) {
		h := rt.h.Order
		r.With(rt.perm(domain.PermissionOrdersRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionOrdersRead)).Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(rt.perm(domain.PermissionOrdersWrite))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Post("/{id}/advance", h.AdvanceStage)
			r.Put("/{id}/stage", h.SetStage)
			r.Post("/{id}/steps/{key}/toggle", h.ToggleProductionStep)
			r.Put("/{id}/payment", h.UpdatePayment)
			r.Put("/{id}/status", h.UpdateStatus)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (rt *Router) conversationRoutes(r chi.Router) {
	h := rt.h.Conversation
	r.Route("/conversations", func(r chi.Router) {
		r.With(rt.perm(domain.PermissionConversationsRead)).Get("/", h.List)
		r.With(rt.perm(domain.PermissionConversationsRead)).Get("/{id}", h.GetByID)
		r.With(rt.perm(domain.PermissionConversationsRead)).Get("/{id}/messages", h.ListMessages)

		r.Group(func(r chi.Router) {
			r.Use(rt.perm(domain.PermissionConversationsWrite))
			r.Post("/", h.Create)
			r.Post("/recalculate-counts", h.RecalculateMessageCounts)
			r.Post("/{id}/messages", h.AddMessage)
			r.Post("/{id}/read", h.MarkRead)
			r.Put("/{id}/status", h.UpdateStatus)
		})
	})
}

func (rt *Router) adminRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		h := rt.h.Settings
		r.With(rt.perm(domain.PermissionSettingsRead)).Get("/", h.Keys)
		r.With(rt.perm(domain.PermissionSettingsRead)).Get("/{key}", h.Get)
		r.With(rt.perm(domain.PermissionSettingsWrite)).Put("/{key}", h.Update)
		r.With(rt.perm(domain.PermissionSettingsWrite)).Post("/{key}/reset", h.Reset)
	})

	r.Route("/integrations/messaging", func(r chi.Router) {
		h := rt.h.Messaging
		r.Use(rt.perm(domain.PermissionIntegrations))
		r.Get("/", h.Get)
		r.Post("/", h.Update)
		r.Delete("/", h.Disconnect)
	})

	r.Route("/stats", func(r chi.Router) {
		h := rt.h.Stats
		r.Use(rt.perm(domain.PermissionReportsView))
		r.Get("/dashboard", h.Dashboard)
		r.Get("/contacts", h.Contacts)
		r.Get("/requests", h.Requests)
		r.Get("/cases", h.Cases)
		r.Get("/orders", h.Orders)
	})
	r.With(rt.perm(domain.PermissionReportsView)).Get("/reminders", rt.h.Stats.Reminders)

	r.Route("/audit", func(r chi.Router) {
		r.Use(rt.perm(domain.PermissionSystemAuditLogs))
		r.Get("/", rt.h.Audit.List)
		r.Get("/{id}", rt.h.Audit.GetByID)
	})

	r.With(rt.perm(domain.PermissionSystemReset)).Post("/system/reset", rt.h.System.Reset)
}

func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := database.HealthCheckWithStats(ctx, rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}
	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// readiness checks every dependency the API needs to serve traffic
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.mongo != nil {
		if err := rt.mongo.Ping(ctx, readpref.Primary()); err != nil {
			rt.logger.Error("Mongo health check failed", zap.Error(err))
			checks["mongo"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["mongo"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
