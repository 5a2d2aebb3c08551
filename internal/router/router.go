package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/chat"
	"github.com/rohannevrikar/panta-flows-v2/internal/config"
	"github.com/rohannevrikar/panta-flows-v2/internal/docstore"
	"github.com/rohannevrikar/panta-flows-v2/internal/filesearch"
	"github.com/rohannevrikar/panta-flows-v2/internal/handler"
	"github.com/rohannevrikar/panta-flows-v2/internal/llm"
	"github.com/rohannevrikar/panta-flows-v2/internal/middleware"
	"github.com/rohannevrikar/panta-flows-v2/internal/model"
	"github.com/rohannevrikar/panta-flows-v2/internal/objstore"
	"github.com/rohannevrikar/panta-flows-v2/internal/service"
	"github.com/rohannevrikar/panta-flows-v2/internal/websearch"
)

// Deps carries the externally constructed collaborators. Nil members disable
// the routes that need them.
type Deps struct {
	Searcher   *websearch.Searcher
	FileSearch *filesearch.Client
	DocStore   *docstore.Store
	ObjStore   *objstore.Store
}

// New builds the HTTP router.
func New(cfg *config.Config, db *sql.DB, deps Deps) http.Handler {
	authSvc := service.NewAuthService(db, cfg.JWTSecret, cfg.TokenExpiryHours)
	workflowSvc := service.NewWorkflowService(db)
	historySvc := service.NewHistoryService(db)
	chatStoreSvc := service.NewChatStoreService(db)
	clientSvc := service.NewClientService(db)

	llmClient := llm.NewClient(cfg.ProviderEndpoint, cfg.ProviderAPIKey, cfg.ProviderModel)
	if deps.Searcher == nil {
		deps.Searcher = websearch.NewSearcher(websearch.NewHTTPProvider(cfg.SearchEndpoint))
	}
	if deps.FileSearch == nil {
		deps.FileSearch = filesearch.NewClient(cfg.ProviderEndpoint, cfg.ProviderAPIKey, cfg.ProviderModel)
	}
	orchestrator := chat.NewOrchestrator(
		llmClient, deps.Searcher, deps.FileSearch,
		time.Duration(cfg.CompletionTimeoutSeconds)*time.Second,
	)

	authH := handler.NewAuthHandler(authSvc)
	userAdminH := handler.NewUserAdminHandler(authSvc)
	healthH := handler.NewHealthHandler("1.0.0")
	chatH := handler.NewChatHandler(chatStoreSvc, orchestrator)
	completionH := handler.NewCompletionHandler(orchestrator)
	webSearchH := handler.NewWebSearchHandler(deps.Searcher)
	fileH := handler.NewFileHandler(deps.FileSearch, deps.ObjStore)
	workflowH := handler.NewWorkflowHandler(workflowSvc)
	historyH := handler.NewHistoryHandler(historySvc)
	clientH := handler.NewClientHandler(clientSvc)

	requireAuth := middleware.AuthMiddleware(authSvc.ValidateToken)
	requireAdmin := middleware.RequireRole(model.RoleClientAdmin)
	requireSuperAdmin := middleware.RequireRole(model.RoleSuperAdmin)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace)
	r.Use(middleware.CORS)

	// Public
	r.Get("/health", healthH.Health)
	r.Get("/api/health", healthH.Health)
	r.Get("/api/version", healthH.Version)
	r.Post("/api/auth/signup", authH.Signup)
	r.Post("/api/auth/login", authH.Login)
	r.Get("/api/clients/by-code/{code}", clientH.GetByCode)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/api/auth/me", authH.Me)

		// Chat
		r.Post("/api/chat/message", chatH.Message)
		r.Post("/api/chat/completions", completionH.Complete)
		r.Get("/api/chat/sessions", chatH.ListSessions)
		r.Post("/api/chat/sessions", chatH.CreateSession)
		r.Get("/api/chat/sessions/{session_id}", chatH.GetSession)
		r.Delete("/api/chat/sessions/{session_id}", chatH.DeleteSession)

		// Search collaborators
		r.Post("/api/web-search/search", webSearchH.Search)
		r.Post("/api/files/upload", fileH.Upload)
		r.Post("/api/files/search", fileH.Search)
		r.Get("/api/files", fileH.List)
		r.Get("/api/files/list", fileH.List)
		r.Get("/api/files/{file_id}", fileH.Info)
		r.Delete("/api/files/{file_id}", fileH.Delete)

		// Workflows + history
		r.Get("/api/workflows", workflowH.List)
		r.Post("/api/workflows", workflowH.Create)
		r.Patch("/api/workflows/{workflow_id}", workflowH.Update)
		r.Put("/api/workflows/{workflow_id}/favorite", workflowH.ToggleFavorite)
		r.Delete("/api/workflows/{workflow_id}", workflowH.Delete)

		r.Get("/api/history", historyH.List)
		r.Post("/api/history", historyH.Create)
		r.Patch("/api/history/{history_id}", historyH.Update)
		r.Put("/api/history/{history_id}/favorite", historyH.ToggleFavorite)
		r.Delete("/api/history/{history_id}", historyH.Delete)

		// Tenant reads available to members; mutations are gated below.
		r.Get("/api/clients/{client_id}", clientH.Get)

		// Document-store variant of session/workflow storage.
		if deps.DocStore != nil {
			docH := handler.NewDocStoreHandler(deps.DocStore)
			r.Get("/api/docstore/sessions", docH.ListSessions)
			r.Post("/api/docstore/sessions", docH.CreateSession)
			r.Get("/api/docstore/sessions/{session_id}", docH.GetSession)
			r.Post("/api/docstore/sessions/{session_id}/messages", docH.AddMessage)
			r.Delete("/api/docstore/sessions/{session_id}", docH.DeleteSession)
			r.Get("/api/docstore/workflows", docH.ListWorkflows)
			r.Post("/api/docstore/workflows", docH.SaveWorkflow)
			r.Delete("/api/docstore/workflows/{workflow_id}", docH.DeleteWorkflow)
		}

		// Admin: user management within a tenant
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/api/users", userAdminH.List)
			r.Post("/api/users", userAdminH.Create)
			r.Delete("/api/users/{user_id}", userAdminH.Deactivate)
			r.Patch("/api/clients/{client_id}", clientH.Update)
			r.Get("/api/clients/{client_id}/api-keys", clientH.GetAPIKeys)
			r.Put("/api/clients/{client_id}/api-keys", clientH.SetAPIKeys)
		})

		// Platform: tenant management
		r.Group(func(r chi.Router) {
			r.Use(requireSuperAdmin)
			r.Get("/api/clients", clientH.List)
			r.Post("/api/clients", clientH.Create)
			r.Delete("/api/clients/{client_id}", clientH.Delete)
		})
	})

	return r
}
