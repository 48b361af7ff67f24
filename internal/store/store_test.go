package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	return NewManager(t.TempDir(), logger)
}

func initApp(t *testing.T, m *Manager, appID, templateID string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(m.deployDir, appID), 0755))
	require.NoError(t, m.Init(appID, templateID))
}

func TestManagerInit(t *testing.T) {
	m := newTestManager(t)

	t.Run("SeedsBlogTemplate", func(t *testing.T) {
		initApp(t, m, "app_blog", "blog")

		collections, err := m.Collections("app_blog")
		require.NoError(t, err)
		assert.Equal(t, []string{"comments", "posts", "users"}, collections)

		posts, err := m.List("app_blog", "posts")
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "Welcome to your blog!", posts[0]["title"])
	})

	t.Run("SeedsEcomTemplate", func(t *testing.T) {
		initApp(t, m, "app_ecom", "ecom")

		collections, err := m.Collections("app_ecom")
		require.NoError(t, err)
		assert.Equal(t, []string{"carts", "orders", "products", "users"}, collections)

		products, err := m.List("app_ecom", "products")
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Sample Product", products[0]["name"])
	})

	t.Run("SeedsCrudTemplate", func(t *testing.T) {
		initApp(t, m, "app_crud", "crud")

		items, err := m.List("app_crud", "items")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("UnknownTemplateSeedsEmptyStore", func(t *testing.T) {
		initApp(t, m, "app_custom", "no-such-template")

		collections, err := m.Collections("app_custom")
		require.NoError(t, err)
		assert.Empty(t, collections)
	})
}

func TestManagerReads(t *testing.T) {
	m := newTestManager(t)
	initApp(t, m, "app_1", "blog")

	t.Run("ListUnknownCollectionIsEmpty", func(t *testing.T) {
		records, err := m.List("app_1", "no-such-collection")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("LoadMissingStore", func(t *testing.T) {
		_, err := m.Load("app_missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("GetByID", func(t *testing.T) {
		post, err := m.Get("app_1", "posts", "1")
		require.NoError(t, err)
		assert.Equal(t, "Welcome to your blog!", post["title"])
	})

	t.Run("GetUnknownID", func(t *testing.T) {
		_, err := m.Get("app_1", "posts", "999")
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
	})
}

func TestManagerCreate(t *testing.T) {
	m := newTestManager(t)
	initApp(t, m, "app_1", "blog")

	t.Run("AssignsIDAndTimestamp", func(t *testing.T) {
		record, err := m.Create("app_1", "posts", Record{"title": "Second post"})
		require.NoError(t, err)
		assert.Equal(t, "Second post", record["title"])
		assert.NotEmpty(t, record["id"])
		assert.NotEmpty(t, record["createdAt"])

		posts, err := m.List("app_1", "posts")
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("CreatesCollectionOnFirstWrite", func(t *testing.T) {
		_, err := m.Create("app_1", "tags", Record{"name": "go"})
		require.NoError(t, err)

		tags, err := m.List("app_1", "tags")
		require.NoError(t, err)
		assert.Len(t, tags, 1)
	})

	t.Run("IDsAreUniqueUnderConcurrency", func(t *testing.T) {
		const writers = 20

		var wg sync.WaitGroup
		ids := make(chan string, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				record, err := m.Create("app_1", "burst", Record{"n": 1})
				assert.NoError(t, err)
				ids <- record["id"].(string)
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[string]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
		assert.Len(t, seen, writers)
	})

	t.Run("CreateOnMissingStore", func(t *testing.T) {
		_, err := m.Create("app_missing", "posts", Record{"title": "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, api.ErrNotFound)
	})
}

func TestManagerStats(t *testing.T) {
	m := newTestManager(t)

	t.Run("CountsCollectionsAndRecords", func(t *testing.T) {
		initApp(t, m, "app_1", "blog")

		stats := m.Stats("app_1")
		assert.Greater(t, stats.Size, int64(0))
		assert.Equal(t, 3, stats.Collections)
		assert.Equal(t, 1, stats.TotalRecords)
	})

	t.Run("MissingStoreReportsZeros", func(t *testing.T) {
		stats := m.Stats("app_missing")
		assert.Equal(t, api.DBStats{}, stats)
	})

	t.Run("CorruptStoreReportsZeroCounts", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(m.deployDir, "app_bad"), 0755))
		require.NoError(t, os.WriteFile(m.Path("app_bad"), []byte("{not json"), 0644))

		stats := m.Stats("app_bad")
		assert.Greater(t, stats.Size, int64(0))
		assert.Equal(t, 0, stats.Collections)
		assert.Equal(t, 0, stats.TotalRecords)
	})
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(t)
	initApp(t, m, "app_1", "blog")

	require.NoError(t, m.Delete("app_1"))
	assert.NoFileExists(t, m.Path("app_1"))

	// Deleting an already absent store is not an error
	require.NoError(t, m.Delete("app_1"))
}
