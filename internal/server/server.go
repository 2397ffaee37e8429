package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/auth"
	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/handlers"
	"github.com/Devkz19/Take-Home-inventory/internal/metrics"
	"github.com/Devkz19/Take-Home-inventory/internal/ratelimit"
	"github.com/Devkz19/Take-Home-inventory/internal/upload"
)

// Dependencies are the handlers and optional collaborators behind the routes.
// Metrics and Limiter may be nil.
type Dependencies struct {
	Products *handlers.ProductHandler
	Health   *handlers.HealthHandler
	Metrics  *metrics.Metrics
	Limiter  ratelimit.Limiter
}

type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

func New(cfg *config.Config, deps Dependencies, log *zap.Logger) *Server {
	router := NewRouter(cfg, deps, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Addr(),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		log: log,
	}

	log.Info("Server created", zap.String("address", cfg.Server.Addr()), zap.String("api_prefix", cfg.Server.APIPrefix))
	return server
}

// NewRouter registers every route on a fresh engine.
func NewRouter(cfg *config.Config, deps Dependencies, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxSize + 1<<20

	router.Use(gin.Recovery(), RequestID(), Logger(log))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.Use(CORS(cfg.Server.AllowedOrigins), handlers.ErrorHandler(log))

	router.GET("/health", deps.Health.HealthCheck)

	protected := []gin.HandlerFunc{auth.Protect(cfg.Auth.JWTSecret, cfg.Auth.CookieName)}
	if cfg.RateLimit.Enabled && deps.Limiter != nil {
		limit := ratelimit.Limit{Rate: cfg.RateLimit.Rate, Burst: cfg.RateLimit.Burst, Period: cfg.RateLimit.Period}
		protected = append(protected, ratelimit.Middleware(deps.Limiter, limit, log))
	}

	image := upload.Single(cfg.Upload.Field, upload.Options{
		MaxSize:      cfg.Upload.MaxSize,
		AllowedTypes: cfg.Upload.AllowedTypes,
	})

	products := router.Group(cfg.Server.APIPrefix+"/products", protected...)
	{
		products.POST("", image, deps.Products.CreateProduct)
		products.GET("", deps.Products.ListProducts)
		products.GET("/stats", deps.Products.ProductStats)
		products.GET("/:id", deps.Products.GetProduct)
		products.PATCH("/:id", image, deps.Products.UpdateProduct)
		products.DELETE("/:id", deps.Products.DeleteProduct)
	}

	return router
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
