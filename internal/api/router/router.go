package router

import (
	"user-service/internal/api/handlers"
	"user-service/internal/api/middleware"
	"user-service/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	UserService  user.UserService
	HealthChecks map[string]handlers.Checker
}

func NewRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(cors.New(corsConfig()))
	r.Use(gin.Recovery())

	userHandler := handlers.NewUserHandler(deps.UserService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/ready", healthHandler.ReadinessCheck)
	r.GET("/live", healthHandler.LivenessCheck)

	users := r.Group(handlers.UsersBasePath)
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/search", userHandler.SearchUsers)
		users.GET("/count", userHandler.CountUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/update/:id", userHandler.UpdateUser)
		users.DELETE("/delete/:id", userHandler.DeleteUser)
	}
	return r
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader}
	return cfg
}
