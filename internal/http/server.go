package http

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/gomemo-fmtpla/backend/internal/config"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

// NewServer wires the handlers onto a gin engine. Dependencies are
// constructed by the caller so the same wiring serves tests with fakes.
func NewServer(cfg config.Config, store Store, blobs Blobs, artifacts Artifacts, resolver TranscriptResolver, queue TaskQueue) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, store, blobs, artifacts, resolver, queue)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
