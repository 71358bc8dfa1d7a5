// Package server assembles the gateway: it loads and sanitizes the mapping
// store, mounts the dispatch router under the configured context path, and
// exposes the operational endpoints.
package server

import (
	"context"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/common/observability"
	"restfront-gateway/internal/gateway/dispatch"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/validator"
)

// Params collects the collaborators assembled elsewhere: services are
// already registered in the registry and error sources in the manager.
type Params struct {
	Config   config.Config
	Logger   logger.Logger
	Registry *registry.Registry
	Errors   *errorlist.Manager
	Loader   *mapping.Loader

	// Observability is optional; when set every request is recorded on the
	// otel instruments in addition to the dispatch-level prometheus metrics.
	Observability *observability.Observability
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    logger.Logger
	http   *http.Server
}

func New(params Params) (*Server, error) {
	gw := params.Config.Gateway

	if gw.ResolverBaseURL != "" && gw.ServiceResolver != "" {
		resolver := registry.NewHTTPResolver(gw.ResolverBaseURL, config.GetDuration(gw.DefaultTimeout), params.Logger)
		if err := params.Registry.Register(gw.ServiceResolver, resolver); err != nil {
			return nil, err
		}
	}

	raw, err := params.Loader.LoadStore(gw.MappingStore)
	if err != nil {
		return nil, err
	}
	bundles := mapping.Sanitize(raw)
	if err := validator.CheckBundles(bundles); err != nil {
		return nil, err
	}

	selector := registry.NewSelector(params.Registry, gw.ServiceResolver, params.Logger)
	builder := dispatch.NewBuilder(dispatch.Dependencies{
		Config:   gw,
		Selector: selector,
		Errors:   params.Errors,
		Logger:   params.Logger,
		DevMode:  params.Config.App.IsDevelopment(),
	})

	engine := gin.New()
	engine.Use(gin.Recovery())
	if params.Observability != nil {
		engine.Use(observeRequests(params.Observability))
	}

	restGroup := engine.Group(path.Join(gw.ContextPath, gw.APIPath))
	builder.BuildRestRouter(restGroup, bundles)

	validateGroup := engine.Group(path.Join(gw.ContextPath, "validate"))
	builder.BuildValidationRouter(validateGroup, bundles)

	mountAPIDocs(engine, gw.ContextPath, bundles)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		engine: engine,
		cfg:    params.Config,
		log:    params.Logger,
	}, nil
}

// Engine exposes the assembled router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.Gateway.ListenAddress,
		Handler: s.engine,
	}
	s.log.Info("gateway listening", map[string]interface{}{
		"address":     s.cfg.Gateway.ListenAddress,
		"contextPath": s.cfg.Gateway.ContextPath,
	})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func observeRequests(obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		outcome := "completed"
		if c.Writer.Status() >= http.StatusBadRequest {
			outcome = "failed"
		}
		obs.RecordRequest(c.Request.Context(), outcome)
		obs.RecordRequestDuration(c.Request.Context(), time.Since(start), outcome)
	}
}

// mountAPIDocs serves the per-bundle swagger documents collected from the
// mapping store.
func mountAPIDocs(engine *gin.Engine, contextPath string, bundles map[string]*mapping.Bundle) {
	docs := map[string]interface{}{}
	for name, bundle := range bundles {
		if bundle.APIDocs != nil {
			docs[name] = bundle.APIDocs
		}
	}

	engine.GET(path.Join(contextPath, "api-docs"), func(c *gin.Context) {
		c.JSON(http.StatusOK, docs)
	})
	engine.GET(path.Join(contextPath, "api-docs/:bundle"), func(c *gin.Context) {
		if doc, ok := docs[c.Param("bundle")]; ok {
			c.JSON(http.StatusOK, doc)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown bundle"})
	})
}
