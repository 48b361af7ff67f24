package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/archive"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/assets"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/audit"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/auth"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/config"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/deploy"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/metrics"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/registry"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/sdk"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/web"
)

var (
	// Version is set during build
	Version = "dev"
	// BuildTime is set during build
	BuildTime = "unknown"
)

// AutodropServer bundles every platform component behind the web server
type AutodropServer struct {
	webServer   *web.WebServer
	auditLogger *audit.Logger
	logger      *logrus.Logger
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	var (
		dataDir    string
		port       uint16
		configFile string
	)

	rootCmd := &cobra.Command{
		Use:   "autodrop",
		Short: "Autodrop frontend deployment platform",
		Long: `Autodrop turns a zipped static or single-page frontend into a running
application with a provisioned document store backend, served at a stable path.`,
		Run: func(cmd *cobra.Command, args []string) {
			log.Infof("Starting Autodrop %s (built at %s)", Version, BuildTime)
			runServer(log, configFile, dataDir, port)
		},
	}

	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "Data directory (can also be set via AUTODROP_DATA_DIR env var)")
	rootCmd.Flags().Uint16Var(&port, "port", 0, "HTTP listen port")
	rootCmd.Flags().StringVar(&configFile, "config", "autodrop.yaml", "Path to the configuration file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Autodrop %s (built at %s)\n", Version, BuildTime)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}

func runServer(log *logrus.Logger, configFile, dataDir string, port uint16) {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override the config file; AUTODROP_* environment variables are
	// picked up by the config loader itself.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if port != 0 {
		cfg.Port = port
	}

	server, err := createServer(log, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Infof("Received signal %v, shutting down...", sig)
		if err := server.webServer.Stop(); err != nil {
			log.Errorf("Error during shutdown: %v", err)
		}
	}()

	log.Info("Autodrop server is running. Press Ctrl+C to stop.")
	if err := server.webServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	if err := server.auditLogger.Close(); err != nil {
		log.Errorf("Failed to close audit logger: %v", err)
	}

	log.Info("Shutdown complete")
}

func createServer(log *logrus.Logger, cfg *config.Config) (*AutodropServer, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	authManager, err := auth.NewManager(cfg.UsersFile(), cfg.TokenTTL, cfg.AdminEmail, cfg.AdminPassword, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth manager: %w", err)
	}

	materializer, err := archive.NewMaterializer(cfg.UploadDir(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create materializer: %w", err)
	}

	reg, err := registry.New(cfg.RegistryFile(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create app registry: %w", err)
	}

	stores := store.NewManager(cfg.DeployDir(), log)
	resolver := assets.NewResolver(log)
	injector := sdk.NewInjector(log)
	tracker := deploy.NewStatusTracker()

	auditLogger, err := audit.NewLogger(cfg.AuditFile(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit logger: %w", err)
	}

	collector := metrics.New()

	orchestrator, err := deploy.NewOrchestrator(cfg.DeployDir(), tracker, resolver, injector, stores, reg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment orchestrator: %w", err)
	}
	orchestrator.WithMetrics(collector).WithAuditor(auditLogger)

	publicDir := filepath.Join(cfg.DataDir, "public")
	webServer := web.NewWebServer(
		int(cfg.Port),
		authManager,
		materializer,
		orchestrator,
		reg,
		stores,
		cfg.MaxUploadSize,
		publicDir,
		log,
	).WithAuditLogger(auditLogger).WithMetrics(collector)

	return &AutodropServer{
		webServer:   webServer,
		auditLogger: auditLogger,
		logger:      log,
	}, nil
}
