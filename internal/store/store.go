package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// StoreFile is the name of the per-application document store file
const StoreFile = "db.json"

// Record is one schema-less document. No shape is enforced beyond the
// generated id and createdAt fields; records within one collection may be
// heterogeneous.
type Record = map[string]any

// Collection is an ordered sequence of records
type Collection = []Record

// Document is one application's whole store: collection name to records
type Document = map[string]Collection

// Manager serves every application's document store. Each store is a single
// JSON file under the application's deploy directory, rewritten whole on
// every mutation. Mutations on the same application are serialized through
// a per-identifier lock; different applications interleave freely.
type Manager struct {
	deployDir string
	logger    *logrus.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	idMu   sync.Mutex
	lastID int64
}

// NewManager creates a new document store manager
func NewManager(deployDir string, logger *logrus.Logger) *Manager {
	return &Manager{
		deployDir: deployDir,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Path returns the store file path for an application
func (m *Manager) Path(appID string) string {
	return filepath.Join(m.deployDir, appID, StoreFile)
}

// lock returns the mutex serializing access to one application's store
func (m *Manager) lock(appID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	l, ok := m.locks[appID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[appID] = l
	}
	return l
}

// Init writes the initial document store for an application, seeded from
// the named template.
func (m *Manager) Init(appID, templateID string) error {
	l := m.lock(appID)
	l.Lock()
	defer l.Unlock()

	return m.write(appID, Seed(templateID))
}

// Load reads an application's whole document store. A missing store file is
// api.ErrNotFound.
func (m *Manager) Load(appID string) (Document, error) {
	l := m.lock(appID)
	l.Lock()
	defer l.Unlock()

	return m.read(appID)
}

// Collections returns the collection names of an application's store
func (m *Manager) Collections(appID string) ([]string, error) {
	doc, err := m.Load(appID)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// List returns a collection's records verbatim, or an empty sequence when
// the collection does not yet exist.
func (m *Manager) List(appID, collection string) (Collection, error) {
	doc, err := m.Load(appID)
	if err != nil {
		return nil, err
	}

	records, ok := doc[collection]
	if !ok {
		return Collection{}, nil
	}
	return records, nil
}

// Get returns the record with the given id from a collection. Records are
// matched on the string form of their id field; a missing record is
// api.ErrNotFound.
func (m *Manager) Get(appID, collection, id string) (Record, error) {
	records, err := m.List(appID, collection)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if fmt.Sprintf("%v", record["id"]) == id {
			return record, nil
		}
	}

	return nil, fmt.Errorf("record %s in %s: %w", id, collection, api.ErrNotFound)
}

// Create assigns a fresh unique id and creation timestamp to the given
// attributes, appends the record to the collection (creating it on first
// write) and persists the whole store.
func (m *Manager) Create(appID, collection string, attrs Record) (Record, error) {
	l := m.lock(appID)
	l.Lock()
	defer l.Unlock()

	doc, err := m.read(appID)
	if err != nil {
		return nil, err
	}

	record := Record{}
	for k, v := range attrs {
		record[k] = v
	}
	record["id"] = m.nextID()
	record["createdAt"] = time.Now().UTC().Format(time.RFC3339)

	doc[collection] = append(doc[collection], record)

	if err := m.write(appID, doc); err != nil {
		return nil, err
	}

	return record, nil
}

// Delete removes an application's store file
func (m *Manager) Delete(appID string) error {
	l := m.lock(appID)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(m.Path(appID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}

// Stats reports size and record counts for an application's store. The data
// is non-critical aggregate information: a missing or corrupt file reports
// zeros instead of failing the enclosing listing.
func (m *Manager) Stats(appID string) api.DBStats {
	var stats api.DBStats

	path := m.Path(appID)
	info, err := os.Stat(path)
	if err != nil {
		return stats
	}
	stats.Size = info.Size()

	raw, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(raw) {
		return stats
	}

	gjson.ParseBytes(raw).ForEach(func(_, value gjson.Result) bool {
		stats.Collections++
		if value.IsArray() {
			stats.TotalRecords += len(value.Array())
		}
		return true
	})

	return stats
}

// read loads the store file without locking; callers hold the app lock
func (m *Manager) read(appID string) (Document, error) {
	raw, err := os.ReadFile(m.Path(appID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store for app %s: %w", appID, api.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// write persists the whole store file; callers hold the app lock
func (m *Manager) write(appID string, doc Document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := os.WriteFile(m.Path(appID), raw, 0644); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// nextID returns a millisecond-timestamp identifier, bumped past the last
// issued one so same-millisecond creations cannot collide.
func (m *Manager) nextID() string {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	id := time.Now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return strconv.FormatInt(id, 10)
}
