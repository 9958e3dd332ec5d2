package httpserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hanzlah101/t3-clone/internal/config"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/auth"
	middleware "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/middlewares"
	"github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/requests"
	v1 "github.com/hanzlah101/t3-clone/internal/interfaces/httpserver/routes/v1"
)

type HTTPServer struct {
	engine    *gin.Engine
	v1Route   *v1.V1Route
	validator *auth.JWTValidator
	logger    zerolog.Logger
	config    *config.Config
}

func NewHTTPServer(
	v1Route *v1.V1Route,
	validator *auth.JWTValidator,
	logger zerolog.Logger,
	cfg *config.Config,
) (*HTTPServer, error) {
	gin.SetMode(gin.ReleaseMode)
	if err := requests.RegisterValidations(); err != nil {
		return nil, fmt.Errorf("register validations: %w", err)
	}

	server := &HTTPServer{
		engine:    gin.New(),
		v1Route:   v1Route,
		validator: validator,
		logger:    logger,
		config:    cfg,
	}

	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(logger))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	server.engine.GET("/healthz", v1.GetHealthz)
	server.engine.GET("/readyz", v1Route.GetReadyz)

	return server, nil
}

func (s *HTTPServer) Run() error {
	protected := s.engine.Group("/")
	protected.Use(middleware.AuthMiddleware(s.validator, s.logger))

	s.v1Route.RegisterRouter(protected)
	s.v1Route.RegisterSharedRouter(protected)

	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
