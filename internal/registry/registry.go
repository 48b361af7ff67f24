package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// Entry is the durable record of one registered application. The owner
// identifier is immutable once set.
type Entry struct {
	OwnerID   string    `json:"ownerId"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
}

// Registry is the durable mapping from application identifier to ownership
// and metadata, persisted as a single JSON document. Every mutation reads,
// modifies and rewrites the whole document under one lock; there is no
// partial-update API.
type Registry struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

// New creates a registry backed by the mapping document at path, creating
// an empty document if none exists.
func New(path string, logger *logrus.Logger) (*Registry, error) {
	r := &Registry{
		path:   path,
		logger: logger,
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.save(map[string]Entry{}); err != nil {
			return nil, fmt.Errorf("failed to initialize registry: %w", err)
		}
	}

	return r, nil
}

// Register inserts or replaces the entry for an application identifier
func (r *Registry) Register(appID string, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apps, err := r.load()
	if err != nil {
		return err
	}

	apps[appID] = entry
	return r.save(apps)
}

// Get returns the entry for an application identifier, or api.ErrNotFound
func (r *Registry) Get(appID string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apps, err := r.load()
	if err != nil {
		return Entry{}, err
	}

	entry, ok := apps[appID]
	if !ok {
		return Entry{}, fmt.Errorf("app %s: %w", appID, api.ErrNotFound)
	}
	return entry, nil
}

// Remove deletes the entry for an application identifier. Removing an
// unknown identifier is api.ErrNotFound.
func (r *Registry) Remove(appID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apps, err := r.load()
	if err != nil {
		return err
	}

	if _, ok := apps[appID]; !ok {
		return fmt.Errorf("app %s: %w", appID, api.ErrNotFound)
	}

	delete(apps, appID)
	return r.save(apps)
}

// ListAll returns the whole registry mapping
func (r *Registry) ListAll() (map[string]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Count returns the number of registered applications
func (r *Registry) Count() (int, error) {
	apps, err := r.ListAll()
	if err != nil {
		return 0, err
	}
	return len(apps), nil
}

func (r *Registry) load() (map[string]Entry, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	apps := map[string]Entry{}
	if err := json.Unmarshal(raw, &apps); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return apps, nil
}

func (r *Registry) save(apps map[string]Entry) error {
	raw, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	if err := os.WriteFile(r.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}
