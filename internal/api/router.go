package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/api/handlers"
	"github.com/domainwatch/domainwatch/internal/api/middleware"
	"github.com/domainwatch/domainwatch/internal/config"
	"github.com/domainwatch/domainwatch/internal/dispatch"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg *config.Config, offload *dispatch.OffloadService, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())

	server := &Server{
		Config: cfg,
		Router: router,
		logger: logger,
	}

	server.setupRoutes(offload)
	return server
}

func (s *Server) setupRoutes(offload *dispatch.OffloadService) {
	s.Router.GET("/health", handlers.HealthCheck)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Offload worker fleet endpoints
	workerHandler := handlers.NewWorkerHandler(offload, s.logger)
	worker := s.Router.Group("/api/v1/worker")
	worker.Use(middleware.WorkerAuth(s.Config.Offload.TokenSecret))
	{
		worker.GET("/due", workerHandler.GetDue)
		worker.POST("/results", workerHandler.SubmitResults)
	}
}
