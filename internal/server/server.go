// Package server exposes the toolbox over HTTP: an HTML form UI plus a JSON API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
)

const serviceName = "tableau-toolbox"

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	svc     *toolbox.Service
	logger  *zap.Logger
	metrics *Metrics
	ui      *ui
}

// New creates a Server over svc.
func New(svc *toolbox.Service, logger *zap.Logger, metrics *Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		svc:     svc,
		logger:  logger,
		metrics: metrics,
		ui:      newUI(),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(s.logger))
	router.Use(s.metrics.Middleware())

	router.GET("/", s.index)
	router.POST("/", s.submit)
	router.GET("/formulas/:kind", s.formulaPage)
	router.POST("/formulas/:kind", s.submitFormula)
	router.GET("/explore", s.explorePage)
	router.POST("/explore", s.submitExplore)
	router.GET("/health", s.health)
	router.GET("/metrics", s.metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/providers", s.listProviders)
		v1.GET("/tools", s.listTools)
		v1.POST("/prompts", s.renderPrompt)
		v1.POST("/generate", s.generate)
		v1.POST("/formulas/:kind", s.buildFormula)

		explore := v1.Group("/explore")
		{
			explore.POST("/schema", s.exploreSchema)
			explore.POST("/combinations", s.exploreCombinations)
			explore.POST("/profile", s.exploreProfile)
			explore.POST("/meanings", s.exploreMeanings)
			explore.POST("/relations", s.exploreRelations)
		}
	}

	return router
}

// NewHTTPServer wraps handler with the timeouts used in production.
// WriteTimeout leaves room for the provider call.
func NewHTTPServer(addr string, handler http.Handler, llmTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      llmTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) health(c *gin.Context) {
	providers := make(map[string]string)
	for _, p := range s.svc.Providers() {
		if p.Available {
			providers[p.ID.String()] = "configured"
		} else {
			providers[p.ID.String()] = "missing api key"
		}
	}

	database := "disabled"
	if s.svc.ExplorerEnabled() {
		database = "configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"providers": providers,
		"database":  database,
	})
}
