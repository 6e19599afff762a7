package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bear-san/coffee-shop/internal/logger"
	"github.com/bear-san/coffee-shop/internal/metrics"
)

// Drink permissions issued by the Auth0 API.
const (
	PermissionGetDrinksDetail = "get:drinks-detail"
	PermissionPostDrinks      = "post:drinks"
	PermissionPatchDrinks     = "patch:drinks"
	PermissionDeleteDrinks    = "delete:drinks"
)

// RouterConfig carries what the router needs besides the handler.
type RouterConfig struct {
	Verifier       TokenVerifier
	Metrics        *metrics.Metrics
	Logger         logger.Logger
	AllowedOrigins []string
	CORSMaxAge     time.Duration
}

// NewRouter wires the drinks API routes.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(NoRoute)
	router.NoMethod(NoMethod)

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: len(cfg.AllowedOrigins) == 0,
		AllowOrigins:    cfg.AllowedOrigins,
		AllowWildcard:   true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          cfg.CORSMaxAge,
	}))
	router.Use(RequestID())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
	}
	router.Use(Logger(cfg.Logger))
	router.Use(Recovery())

	auth := func(permission string) gin.HandlerFunc {
		return RequiresAuth(cfg.Verifier, permission, cfg.Logger)
	}

	router.GET("/", h.Index)
	router.GET("/login-results", h.LoginResults)
	router.GET("/drinks", h.GetDrinks)
	router.GET("/drinks-detail", auth(PermissionGetDrinksDetail), h.GetDrinksDetail)
	router.POST("/drinks", auth(PermissionPostDrinks), h.CreateDrink)
	router.PATCH("/drinks/:id", auth(PermissionPatchDrinks), h.UpdateDrink)
	router.DELETE("/drinks/:id", auth(PermissionDeleteDrinks), h.DeleteDrink)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	return router
}
