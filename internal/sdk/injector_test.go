package sdk

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	injector := NewInjector(logger)

	t.Run("InjectsBeforeClosingHead", func(t *testing.T) {
		dir := t.TempDir()
		entry := filepath.Join(dir, "index.html")
		require.NoError(t, os.WriteFile(entry, []byte("<html><head><title>App</title></head><body></body></html>"), 0644))

		injected, err := injector.Inject(dir, "app_123_abcd")
		require.NoError(t, err)
		assert.True(t, injected)

		html, err := os.ReadFile(entry)
		require.NoError(t, err)

		content := string(html)
		assert.Contains(t, content, "window.AutoDrop")
		assert.Contains(t, content, "/api/app_123_abcd")

		// The script must land inside the head element
		scriptAt := strings.Index(content, "window.AutoDrop")
		headCloseAt := strings.Index(content, "</head>")
		assert.Less(t, scriptAt, headCloseAt)
	})

	t.Run("FindsNestedEntryDocument", func(t *testing.T) {
		dir := t.TempDir()
		dist := filepath.Join(dir, "dist")
		require.NoError(t, os.MkdirAll(dist, 0755))
		entry := filepath.Join(dist, "index.html")
		require.NoError(t, os.WriteFile(entry, []byte("<html><head></head><body></body></html>"), 0644))

		injected, err := injector.Inject(dir, "app_456_wxyz")
		require.NoError(t, err)
		assert.True(t, injected)

		html, err := os.ReadFile(entry)
		require.NoError(t, err)
		assert.Contains(t, string(html), "/api/app_456_wxyz")
	})

	t.Run("NoEntryDocumentIsANoOp", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("no html here"), 0644))

		injected, err := injector.Inject(dir, "app_789_none")
		require.NoError(t, err)
		assert.False(t, injected)
	})
}
