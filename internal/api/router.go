package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"tangent-backend/internal/config"
	"tangent-backend/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router
// setup, primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler   *handlers.AuthHandler
	ChatHandler   *handlers.ChatHandlers
	BranchHandler *handlers.BranchHandlers
	Config        *config.Config
	Logger        zerolog.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// --- CORS Configuration ---
	// The assistant UI runs on localhost next to the server.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", deps.ChatHandler.HandleCreateChat)
			r.Get("/", deps.ChatHandler.HandleListChats)
			r.Post("/import", deps.ChatHandler.HandleImportChat)

			r.Route("/{chatID}", func(r chi.Router) {
				r.Get("/", deps.ChatHandler.HandleGetChat)
				r.Patch("/", deps.ChatHandler.HandleUpdateChat)
				r.Delete("/", deps.ChatHandler.HandleDeleteChat)

				// Message APIs
				r.Post("/messages", deps.ChatHandler.HandleAddMessage)
				r.Get("/messages", deps.ChatHandler.HandleListMessages)
				r.Delete("/messages", deps.ChatHandler.HandleClearMessages)
				r.Get("/history", deps.ChatHandler.HandleHistory)
				r.Post("/reply", deps.ChatHandler.HandleGenerateReply)

				// Branch APIs
				r.Route("/branches", func(r chi.Router) {
					r.Post("/", deps.BranchHandler.HandleCreateBranch)
					r.Get("/", deps.BranchHandler.HandleListBranches)
					r.Patch("/{branchID}", deps.BranchHandler.HandleRenameBranch)
					r.Delete("/{branchID}", deps.BranchHandler.HandleDeleteBranch)
					r.Post("/{branchID}/activate", deps.BranchHandler.HandleActivateBranch)
				})

				// Visualization & export
				r.Get("/tree", deps.ChatHandler.HandleTree)
				r.Get("/export", deps.ChatHandler.HandleExportChat)
			})
		})
	})

	return r
}
