package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/handlers"
	"github.com/yukikurage/taskflow-api/internal/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Task    *handlers.TaskHandler
	Project *handlers.ProjectHandler
	User    *handlers.UserHandler
	Health  *handlers.HealthHandler
}

// Options configures the engine.
type Options struct {
	Logger         *zap.Logger
	Verifier       middleware.TokenVerifier
	AllowedOrigins []string
}

// New builds the gin engine with every route of the API.
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		middleware.RequestContext(log),
		middleware.AccessLog(log),
		middleware.Recovery(log),
		cors.New(corsConfig(opts.AllowedOrigins)),
	)

	r.NoRoute(routeNotFound)
	r.NoMethod(routeNotFound)

	requireAuth := middleware.RequireAuth(opts.Verifier)
	// Health stays public; a valid token only tags the access log.
	optionalAuth := middleware.OptionalAuth(opts.Verifier)

	r.GET("/health", optionalAuth, h.Health.Health)

	api := r.Group("/api")
	{
		api.GET("/health", optionalAuth, h.Health.Health)

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.GET("/profile", requireAuth, h.Auth.GetProfile)
			auth.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
			auth.PUT("/change-password", requireAuth, h.Auth.ChangePassword)
			auth.POST("/logout", requireAuth, h.Auth.Logout)
		}

		// Task routes (owner-scoped)
		taskID := middleware.RequireIDParam("Task")
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Task.ListTasks)
			tasks.POST("", h.Task.CreateTask)
			tasks.GET("/stats", h.Task.Stats)
			tasks.GET("/upcoming", h.Task.Upcoming)
			tasks.GET("/by-priority", h.Task.ByPriority)
			tasks.GET("/:id", taskID, h.Task.GetTask)
			tasks.PUT("/:id", taskID, h.Task.UpdateTask)
			tasks.DELETE("/:id", taskID, h.Task.DeleteTask)
			tasks.PATCH("/:id/toggle", taskID, h.Task.ToggleTask)
			tasks.PATCH("/:id/star", taskID, h.Task.ToggleStar)
		}

		// Project routes (owner-scoped)
		projectID := middleware.RequireIDParam("Project")
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", h.Project.ListProjects)
			projects.POST("/create", h.Project.CreateProject)
			projects.GET("/stats", h.Project.Stats)
			projects.GET("/deadlines", h.Project.Deadlines)
			projects.GET("/by-status", h.Project.ByStatus)
			projects.GET("/:id", projectID, h.Project.GetProject)
			projects.PUT("/:id", projectID, h.Project.UpdateProject)
			projects.DELETE("/:id", projectID, h.Project.DeleteProject)
			projects.POST("/:id/team/add", projectID, h.Project.AddTeamMember)
			projects.POST("/:id/team/remove", projectID, h.Project.RemoveTeamMember)
		}

		// User directory (global)
		userID := middleware.RequireIDParam("User")
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", h.User.ListUsers)
			users.GET("/search", h.User.SearchUsers)
			users.GET("/stats", h.User.Stats)
			users.GET("/:id", userID, h.User.GetUser)
			users.PUT("/:id", userID, h.User.UpdateUser)
			users.DELETE("/:id", userID, h.User.DeleteUser)
			users.PUT("/:id/metrics", userID, h.User.RefreshMetrics)
		}
	}

	return r
}

func routeNotFound(c *gin.Context) {
	apierrors.NotFound(c, "Route not found")
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", constants.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
