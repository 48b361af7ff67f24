package deploy

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/archive"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/assets"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/registry"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/sdk"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// FrontendDir is the subdirectory of an app's deploy tree holding the
// served frontend.
const FrontendDir = "frontend"

// Metrics receives deployment outcome counts. Implementations must be safe
// for concurrent use.
type Metrics interface {
	DeploymentStarted()
	DeploymentFinished(success bool)
}

// Auditor records durable audit events. Recording is best effort and must
// never fail the caller.
type Auditor interface {
	Record(userID, action, resource, details string)
}

// Request describes one deployment to run
type Request struct {
	SourceDir  string
	TemplateID string
	AppID      string
	OwnerID    string
	Name       string
}

// Orchestrator drives an application through the deployment stages,
// recording progress in its status tracker. Each run is detached from the
// request that triggered it; callers observe progress by polling.
type Orchestrator struct {
	deployDir string
	tracker   *StatusTracker
	resolver  *assets.Resolver
	injector  *sdk.Injector
	stores    *store.Manager
	registry  *registry.Registry
	metrics   Metrics
	auditor   Auditor
	logger    *logrus.Logger

	cancelsMu sync.Mutex
	cancels   map[string]context.CancelFunc
}

// NewOrchestrator creates a deployment orchestrator writing app trees under
// deployDir.
func NewOrchestrator(
	deployDir string,
	tracker *StatusTracker,
	resolver *assets.Resolver,
	injector *sdk.Injector,
	stores *store.Manager,
	reg *registry.Registry,
	logger *logrus.Logger,
) (*Orchestrator, error) {
	if err := os.MkdirAll(deployDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create deploy directory: %w", err)
	}

	return &Orchestrator{
		deployDir: deployDir,
		tracker:   tracker,
		resolver:  resolver,
		injector:  injector,
		stores:    stores,
		registry:  reg,
		logger:    logger,
		cancels:   make(map[string]context.CancelFunc),
	}, nil
}

// WithMetrics sets the metrics sink
func (o *Orchestrator) WithMetrics(metrics Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// WithAuditor sets the audit sink
func (o *Orchestrator) WithAuditor(auditor Auditor) *Orchestrator {
	o.auditor = auditor
	return o
}

// Tracker returns the status tracker owned by this orchestrator
func (o *Orchestrator) Tracker() *StatusTracker {
	return o.tracker
}

// AppDir returns the deploy tree root of an application
func (o *Orchestrator) AppDir(appID string) string {
	return filepath.Join(o.deployDir, appID)
}

// GenerateAppID produces a fresh application identifier. Identifiers embed
// a millisecond timestamp plus a random suffix and are never reused after
// deletion within a registry generation.
func GenerateAppID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err == nil {
		for i := range suffix {
			suffix[i] = charset[int(suffix[i])%len(charset)]
		}
	} else {
		copy(suffix, "0000")
	}
	return fmt.Sprintf("app_%d_%s", time.Now().UnixMilli(), suffix)
}

// Cancel aborts an in-flight deployment. The run fails at its next stage
// boundary; stages already underway complete. Returns false when no run is
// active for the identifier.
func (o *Orchestrator) Cancel(appID string) bool {
	o.cancelsMu.Lock()
	defer o.cancelsMu.Unlock()

	cancel, ok := o.cancels[appID]
	if ok {
		cancel()
	}
	return ok
}

// Start records the starting status and launches the deployment detached
// from the caller. It returns as soon as the starting status is visible;
// the run proceeds to live or failed on its own.
func (o *Orchestrator) Start(req Request) {
	o.tracker.set(req.AppID, api.StatusRecord{
		Status:   api.DeployStarting,
		Progress: 0,
		OwnerID:  req.OwnerID,
	})

	if o.metrics != nil {
		o.metrics.DeploymentStarted()
	}
	if o.auditor != nil {
		o.auditor.Record(req.OwnerID, "deploy_start", "app:"+req.AppID, "Deployment of "+req.Name+" started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancelsMu.Lock()
	o.cancels[req.AppID] = cancel
	o.cancelsMu.Unlock()

	go func() {
		defer func() {
			cancel()
			o.cancelsMu.Lock()
			delete(o.cancels, req.AppID)
			o.cancelsMu.Unlock()
		}()

		if err := o.run(ctx, req); err != nil {
			o.logger.WithError(err).WithField("app_id", req.AppID).Error("Deployment failed")
			o.tracker.set(req.AppID, api.StatusRecord{
				Status:  api.DeployFailed,
				OwnerID: req.OwnerID,
				Error:   err.Error(),
			})
			if o.metrics != nil {
				o.metrics.DeploymentFinished(false)
			}
			if o.auditor != nil {
				o.auditor.Record(req.OwnerID, "deploy_failed", "app:"+req.AppID, err.Error())
			}
			return
		}

		if o.metrics != nil {
			o.metrics.DeploymentFinished(true)
		}
		if o.auditor != nil {
			o.auditor.Record(req.OwnerID, "deploy_live", "app:"+req.AppID, "Deployment of "+req.Name+" is live")
		}
	}()
}

// run executes the deployment stages in order. Transitions are strictly
// forward; any stage error surfaces as the failed terminal status in the
// caller. Working files of failed runs are intentionally preserved for
// inspection.
func (o *Orchestrator) run(ctx context.Context, req Request) error {
	appDir := o.AppDir(req.AppID)
	frontendDir := filepath.Join(appDir, FrontendDir)

	// Stage: copy the uploaded tree into the frontend root
	if err := o.advance(ctx, req, api.DeployCopyingFiles, 20); err != nil {
		return err
	}
	if err := os.MkdirAll(frontendDir, 0755); err != nil {
		return fmt.Errorf("failed to create frontend directory: %w", err)
	}
	if err := archive.CopyPayload(req.SourceDir, frontendDir); err != nil {
		return fmt.Errorf("failed to copy frontend: %w", err)
	}
	if _, err := o.resolver.ResolveRoot(frontendDir); err != nil {
		return fmt.Errorf("failed to resolve serving root: %w", err)
	}

	// Stage: seed the document store from the template
	if err := o.advance(ctx, req, api.DeployInitializingDatabase, 50); err != nil {
		return err
	}
	if err := o.stores.Init(req.AppID, req.TemplateID); err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}

	// Stage: inject the client SDK. A missing entry document is a no-op.
	if err := o.advance(ctx, req, api.DeployInjectingSDK, 80); err != nil {
		return err
	}
	if _, err := o.injector.Inject(frontendDir, req.AppID); err != nil {
		return fmt.Errorf("failed to inject SDK: %w", err)
	}

	// The single durable write of a successful run
	if err := o.registry.Register(req.AppID, registry.Entry{
		OwnerID:   req.OwnerID,
		Template:  req.TemplateID,
		CreatedAt: time.Now().UTC(),
		Name:      req.Name,
	}); err != nil {
		return fmt.Errorf("failed to register app: %w", err)
	}

	o.tracker.set(req.AppID, api.StatusRecord{
		Status:   api.DeployLive,
		Progress: 100,
		OwnerID:  req.OwnerID,
		URL:      "/apps/" + req.AppID,
	})

	o.logger.WithFields(logrus.Fields{
		"app_id":   req.AppID,
		"owner_id": req.OwnerID,
	}).Info("Deployment live")

	// Successful runs clean up their upload working directory
	if err := os.RemoveAll(req.SourceDir); err != nil {
		o.logger.WithError(err).Warn("Failed to remove upload working directory")
	}

	return nil
}

// advance moves the run to the next stage unless it has been cancelled
func (o *Orchestrator) advance(ctx context.Context, req Request, state api.DeployState, progress int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("deployment cancelled: %w", err)
	}

	o.tracker.set(req.AppID, api.StatusRecord{
		Status:   state,
		Progress: progress,
		OwnerID:  req.OwnerID,
	})
	return nil
}
