package deploy

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/assets"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/registry"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/sdk"
	"github.com/kaya95/Autodrop-SaaS-platform/internal/store"
	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

type testHarness struct {
	orchestrator *Orchestrator
	tracker      *StatusTracker
	registry     *registry.Registry
	stores       *store.Manager
	deployDir    string
	uploadDir    string
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	deployDir := filepath.Join(t.TempDir(), "deploy")
	uploadDir := t.TempDir()

	reg, err := registry.New(filepath.Join(t.TempDir(), "apps.json"), logger)
	require.NoError(t, err)

	stores := store.NewManager(deployDir, logger)
	tracker := NewStatusTracker()

	orchestrator, err := NewOrchestrator(
		deployDir,
		tracker,
		assets.NewResolver(logger),
		sdk.NewInjector(logger),
		stores,
		reg,
		logger,
	)
	require.NoError(t, err)

	return &testHarness{
		orchestrator: orchestrator,
		tracker:      tracker,
		registry:     reg,
		stores:       stores,
		deployDir:    deployDir,
		uploadDir:    uploadDir,
	}
}

// stageSource lays out an uploaded frontend tree to deploy from
func (h *testHarness) stageSource(t *testing.T, files map[string]string) string {
	t.Helper()

	sourceDir := filepath.Join(h.uploadDir, "upload-1")
	for name, content := range files {
		path := filepath.Join(sourceDir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return sourceDir
}

// waitForTerminal polls the tracker until the run reaches live or failed
func (h *testHarness) waitForTerminal(t *testing.T, appID string) api.StatusRecord {
	t.Helper()

	var record api.StatusRecord
	require.Eventually(t, func() bool {
		r, ok := h.tracker.Get(appID)
		if !ok {
			return false
		}
		record = r
		return r.Status == api.DeployLive || r.Status == api.DeployFailed
	}, 10*time.Second, 10*time.Millisecond, "deployment never reached a terminal state")

	return record
}

func TestGenerateAppID(t *testing.T) {
	pattern := regexp.MustCompile(`^app_\d+_[a-z0-9]{4}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateAppID()
		assert.Regexp(t, pattern, id)
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

func TestOrchestratorDeploysToLive(t *testing.T) {
	h := newTestHarness(t)

	sourceDir := h.stageSource(t, map[string]string{
		"index.html":    "<html><head><title>App</title></head><body></body></html>",
		"assets/app.js": "console.log('hi')",
	})

	appID := GenerateAppID()
	h.orchestrator.Start(Request{
		SourceDir:  sourceDir,
		TemplateID: "blog",
		AppID:      appID,
		OwnerID:    "user-1",
		Name:       "My Blog",
	})

	record := h.waitForTerminal(t, appID)
	require.Equal(t, api.DeployLive, record.Status)
	assert.Equal(t, 100, record.Progress)
	assert.Equal(t, "user-1", record.OwnerID)
	assert.Equal(t, "/apps/"+appID, record.URL)

	// Frontend copied into place and SDK injected
	frontendDir := filepath.Join(h.orchestrator.AppDir(appID), FrontendDir)
	html, err := os.ReadFile(filepath.Join(frontendDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "window.AutoDrop")
	assert.FileExists(t, filepath.Join(frontendDir, "assets", "app.js"))

	// Document store seeded from the template
	collections, err := h.stores.Collections(appID)
	require.NoError(t, err)
	assert.Contains(t, collections, "posts")

	// Registered exactly once, with the deployment metadata
	entry, err := h.registry.Get(appID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", entry.OwnerID)
	assert.Equal(t, "blog", entry.Template)
	assert.Equal(t, "My Blog", entry.Name)

	// Successful runs clean up their upload working directory
	assert.Eventually(t, func() bool {
		_, err := os.Stat(sourceDir)
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestOrchestratorUnwrapsSingleDirectoryUpload(t *testing.T) {
	h := newTestHarness(t)

	sourceDir := h.stageSource(t, map[string]string{
		"my-app/index.html": "<html><head></head><body></body></html>",
		"my-app/app.js":     "js",
	})

	appID := GenerateAppID()
	h.orchestrator.Start(Request{
		SourceDir:  sourceDir,
		TemplateID: "crud",
		AppID:      appID,
		OwnerID:    "user-1",
	})

	record := h.waitForTerminal(t, appID)
	require.Equal(t, api.DeployLive, record.Status)

	// The wrapper directory is gone; the entry document sits at the root
	frontendDir := filepath.Join(h.orchestrator.AppDir(appID), FrontendDir)
	assert.FileExists(t, filepath.Join(frontendDir, "index.html"))
	assert.NoDirExists(t, filepath.Join(frontendDir, "my-app"))
}

func TestOrchestratorMissingEntryStillDeploys(t *testing.T) {
	h := newTestHarness(t)

	sourceDir := h.stageSource(t, map[string]string{
		"readme.txt": "no html in here",
	})

	appID := GenerateAppID()
	h.orchestrator.Start(Request{
		SourceDir:  sourceDir,
		TemplateID: "blog",
		AppID:      appID,
		OwnerID:    "user-1",
	})

	// SDK injection is skipped but the deployment still completes
	record := h.waitForTerminal(t, appID)
	assert.Equal(t, api.DeployLive, record.Status)
}

func TestOrchestratorFailedRun(t *testing.T) {
	h := newTestHarness(t)

	appID := GenerateAppID()
	h.orchestrator.Start(Request{
		SourceDir:  filepath.Join(h.uploadDir, "does-not-exist"),
		TemplateID: "blog",
		AppID:      appID,
		OwnerID:    "user-1",
	})

	record := h.waitForTerminal(t, appID)
	require.Equal(t, api.DeployFailed, record.Status)
	assert.NotEmpty(t, record.Error)
	assert.Equal(t, "user-1", record.OwnerID)

	// Failed runs never reach the registry
	_, err := h.registry.Get(appID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestOrchestratorCancel(t *testing.T) {
	h := newTestHarness(t)

	t.Run("CancelUnknownRun", func(t *testing.T) {
		assert.False(t, h.orchestrator.Cancel("app_unknown"))
	})
}
