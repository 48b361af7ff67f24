package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Run("EntryAtRoot", func(t *testing.T) {
		snap := Snapshot{Files: []string{"index.html", "style.css"}}

		dir, found := Resolve(snap)
		assert.True(t, found)
		assert.Equal(t, ".", dir)
	})

	t.Run("EntryInConventionalDir", func(t *testing.T) {
		for _, conventional := range []string{"public", "dist", "build"} {
			snap := Snapshot{Files: []string{
				"README.md",
				conventional + "/index.html",
				conventional + "/app.js",
			}}

			dir, found := Resolve(snap)
			assert.True(t, found)
			assert.Equal(t, conventional, dir)
		}
	})

	t.Run("EntryInSingleTopLevelDir", func(t *testing.T) {
		snap := Snapshot{Files: []string{
			"my-app/index.html",
			"my-app/app.js",
		}}

		dir, found := Resolve(snap)
		assert.True(t, found)
		assert.Equal(t, "my-app", dir)
	})

	t.Run("RootWinsOverNested", func(t *testing.T) {
		snap := Snapshot{Files: []string{
			"index.html",
			"dist/index.html",
		}}

		dir, found := Resolve(snap)
		assert.True(t, found)
		assert.Equal(t, ".", dir)
	})

	t.Run("DeepFallback", func(t *testing.T) {
		snap := Snapshot{Files: []string{
			"README.md",
			"src/deep/nested/index.html",
		}}

		dir, found := Resolve(snap)
		assert.True(t, found)
		assert.Equal(t, "src/deep/nested", dir)
	})

	t.Run("NoEntryAnywhere", func(t *testing.T) {
		snap := Snapshot{Files: []string{"readme.txt", "data/notes.md"}}

		_, found := Resolve(snap)
		assert.False(t, found)
	})

	t.Run("ResolutionIsPure", func(t *testing.T) {
		snap := Snapshot{Files: []string{"dist/index.html", "dist/app.js"}}

		first, foundFirst := Resolve(snap)
		second, foundSecond := Resolve(snap)

		assert.True(t, foundFirst)
		assert.True(t, foundSecond)
		assert.Equal(t, first, second)
	})
}

func TestTakeSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public", "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	snap, err := TakeSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt", "public/index.html"}, snap.Files)
}

func TestResolveRoot(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	resolver := NewResolver(logger)

	t.Run("EntryAlreadyAtRoot", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0644))

		found, err := resolver.ResolveRoot(root)
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("PromotesNestedEntry", func(t *testing.T) {
		root := t.TempDir()
		dist := filepath.Join(root, "dist")
		require.NoError(t, os.MkdirAll(dist, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html></html>"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dist, "app.js"), []byte("js"), 0644))

		found, err := resolver.ResolveRoot(root)
		require.NoError(t, err)
		assert.True(t, found)

		// The entry document and its siblings must now sit at the root
		assert.FileExists(t, filepath.Join(root, "index.html"))
		assert.FileExists(t, filepath.Join(root, "app.js"))
	})

	t.Run("NoEntryIsNotAnError", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("x"), 0644))

		found, err := resolver.ResolveRoot(root)
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestFindEntry(t *testing.T) {
	t.Run("ReturnsAbsolutePath", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0644))

		entry, found := FindEntry(root)
		assert.True(t, found)
		assert.Equal(t, filepath.Join(root, "index.html"), entry)
	})

	t.Run("MissingEntry", func(t *testing.T) {
		root := t.TempDir()

		_, found := FindEntry(root)
		assert.False(t, found)
	})
}
