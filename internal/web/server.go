// Package web implements the HTTP API server for the Autodrop platform.
// It exposes authentication, upload and deployment endpoints, the admin
// surface, the per-app tenant data API and the static serving of deployed
// applications.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/archive"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/audit"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/auth"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/deploy"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/metrics"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/registry"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
)

// WebServer represents the Autodrop HTTP API server
type WebServer struct {
	router        *gin.Engine
	server        *http.Server
	port          int
	authManager   *auth.Manager
	materializer  *archive.Materializer
	orchestrator  *deploy.Orchestrator
	tracker       *deploy.StatusTracker
	registry      *registry.Registry
	stores        *store.Manager
	auditLogger   *audit.Logger
	metrics       *metrics.Metrics
	maxUploadSize int64
	publicDir     string
	logger        *logrus.Logger
}

// NewWebServer creates a new web server instance
func NewWebServer(
	port int,
	authManager *auth.Manager,
	materializer *archive.Materializer,
	orchestrator *deploy.Orchestrator,
	reg *registry.Registry,
	stores *store.Manager,
	maxUploadSize int64,
	publicDir string,
	logger *logrus.Logger,
) *WebServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	ws := &WebServer{
		router:        router,
		port:          port,
		authManager:   authManager,
		materializer:  materializer,
		orchestrator:  orchestrator,
		tracker:       orchestrator.Tracker(),
		registry:      reg,
		stores:        stores,
		maxUploadSize: maxUploadSize,
		publicDir:     publicDir,
		logger:        logger,
	}

	ws.setupMiddleware()
	ws.setupRoutes()

	return ws
}

// WithAuditLogger attaches an audit logger to the server
func (ws *WebServer) WithAuditLogger(auditLogger *audit.Logger) *WebServer {
	ws.auditLogger = auditLogger
	return ws
}

// WithMetrics attaches a metrics collector to the server and exposes it for
// scraping
func (ws *WebServer) WithMetrics(m *metrics.Metrics) *WebServer {
	ws.metrics = m
	ws.router.GET("/metrics", m.Handler())
	return ws
}

// setupMiddleware configures the middleware chain
func (ws *WebServer) setupMiddleware() {
	ws.router.Use(RecoveryHandler(ws.logger))
	ws.router.Use(LoggingMiddleware(ws.logger))
	ws.router.Use(ErrorHandler(ws.logger))
	ws.router.Use(cors.Default())
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Authentication
	authRoutes := ws.router.Group("/api/auth")
	{
		authRoutes.POST("/register", ws.registerHandler)
		authRoutes.POST("/login", ws.loginHandler)
		authRoutes.POST("/logout", ws.logoutHandler)
		authRoutes.GET("/me", ws.authManager.RequireAuth(), ws.meHandler)
	}

	// Platform operations
	platform := ws.router.Group("/api", ws.authManager.RequireAuth())
	{
		platform.POST("/upload", ws.uploadHandler)
		platform.GET("/templates", ws.templatesHandler)
		platform.POST("/deploy", ws.deployHandler)
		platform.GET("/status/:appId", ws.statusHandler)
		platform.GET("/my-apps", ws.myAppsHandler)
		platform.DELETE("/apps/:appId", ws.deleteAppHandler)
	}

	// Admin surface
	admin := ws.router.Group("/api/admin", ws.authManager.RequireAuth(), ws.authManager.RequireAdmin())
	{
		admin.GET("/apps", ws.adminAppsHandler)
		admin.GET("/audit", ws.adminAuditHandler)
		admin.POST("/apps/:appId/stop", ws.stopAppHandler)
	}

	// Tenant data API, one document store per deployed app
	tenant := ws.router.Group("/api/:appId", ws.authManager.RequireAuth())
	{
		tenant.Any("", ws.tenantDataHandler)
		tenant.Any("/*collection", ws.tenantDataHandler)
	}

	// Deployed applications
	ws.router.GET("/apps/:appId", ws.serveAppHandler)
	ws.router.GET("/apps/:appId/*filepath", ws.serveAppHandler)

	// Dashboard and health
	ws.router.GET("/", ws.dashboardHandler)
	ws.router.GET("/admin", ws.authManager.RequireAuth(), ws.authManager.RequireAdmin(), ws.adminPageHandler)
	ws.router.GET("/health", ws.healthHandler)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", ws.port),
		Handler: ws.router,
	}

	ws.logger.Infof("Starting web server on port %d", ws.port)
	if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start web server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the web server
func (ws *WebServer) Stop() error {
	if ws.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ws.logger.Info("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// Router returns the underlying gin engine, used by tests
func (ws *WebServer) Router() *gin.Engine {
	return ws.router
}

// healthHandler returns the server health status
func (ws *WebServer) healthHandler(c *gin.Context) {
	count, err := ws.registry.Count()
	if err != nil {
		count = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"apps":      count,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
