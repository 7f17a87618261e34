// Package registry is the top-level component that owns every collection
// in a process (spec §2 component 10): it creates, looks up, lists, and
// deletes collections, and reloads every collection's last committed
// generation from disk at startup. Grounded on the teacher's
// internal/engine/engine.go, whose Engine does exactly this for indexes
// instead of collections: a name-keyed map behind one RWMutex, a
// loadIndexesFromDisk startup sweep, and CreateIndex/DeleteIndex/
// RenameIndex methods.
package registry

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gcbaptista/docretrieval/config"
	"github.com/gcbaptista/docretrieval/embedding"
	"github.com/gcbaptista/docretrieval/internal/apperrors"
	"github.com/gcbaptista/docretrieval/internal/collection"
	"github.com/gcbaptista/docretrieval/model"
)

const collectionsDirPerm = 0o750

// Registry owns every collection known to this process.
type Registry struct {
	mu          sync.RWMutex
	collections map[model.CollectionId]*collection.Collection
	dataDir     string
	settings    config.EngineSettings
	embedder    embedding.Embedder
}

// collectionsRoot is the directory under dataDir holding one subdirectory
// per collection (spec §6: "collections/{collection_id}/...").
func collectionsRoot(dataDir string) string {
	return filepath.Join(dataDir, "collections")
}

// New creates an empty registry rooted at settings.DataDir, without
// touching disk. Use Open to additionally reload existing collections.
func New(settings config.EngineSettings, embedder embedding.Embedder) *Registry {
	return &Registry{
		collections: make(map[model.CollectionId]*collection.Collection),
		dataDir:     settings.DataDir,
		settings:    settings,
		embedder:    embedder,
	}
}

// Open creates a registry and reloads every collection directory found on
// disk, mirroring the teacher's Engine.loadIndexesFromDisk startup sweep.
func Open(settings config.EngineSettings, embedder embedding.Embedder) (*Registry, error) {
	r := New(settings, embedder)

	root := collectionsRoot(r.dataDir)
	if err := os.MkdirAll(root, collectionsDirPerm); err != nil {
		return nil, fmt.Errorf("registry: create collections root %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("registry: read collections root %s: %w", root, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := model.CollectionId(entry.Name())
		c, err := collection.Load(id, filepath.Join(root, entry.Name()), r.settings, r.embedder)
		if err != nil {
			log.Printf("registry: failed to load collection %q: %v. Skipping.", id, err)
			continue
		}
		r.collections[id] = c
		log.Printf("registry: loaded collection %q at offset %d", id, c.Offset())
	}

	return r, nil
}

// Create registers a brand-new, empty collection. Returns
// a CollectionExistsError (matching ErrCollectionExists) if id is already
// registered.
func (r *Registry) Create(id model.CollectionId) (*collection.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[id]; exists {
		return nil, apperrors.NewCollectionExistsError(string(id))
	}

	dir := filepath.Join(collectionsRoot(r.dataDir), string(id))
	if err := os.MkdirAll(dir, collectionsDirPerm); err != nil {
		return nil, fmt.Errorf("registry: create collection directory %s: %w", dir, err)
	}

	c := collection.New(id, dir, r.settings, r.embedder)
	r.collections[id] = c
	return c, nil
}

// Get returns the collection registered under id.
func (r *Registry) Get(id model.CollectionId) (*collection.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[id]
	if !ok {
		return nil, apperrors.NewUnknownCollectionError(string(id))
	}
	return c, nil
}

// List returns every registered collection id.
func (r *Registry) List() []model.CollectionId {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]model.CollectionId, 0, len(r.collections))
	for id := range r.collections {
		ids = append(ids, id)
	}
	return ids
}

// Delete removes a collection from the registry and deletes its on-disk
// data.
func (r *Registry) Delete(id model.CollectionId) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.collections[id]; !exists {
		return apperrors.NewUnknownCollectionError(string(id))
	}
	delete(r.collections, id)

	dir := filepath.Join(collectionsRoot(r.dataDir), string(id))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("registry: remove collection directory %s: %w", dir, err)
	}
	return nil
}

// CommitAll runs Commit on every registered collection, collecting and
// returning every error encountered rather than stopping at the first
// (commits across collections are independent, spec §5).
func (r *Registry) CommitAll() map[model.CollectionId]error {
	r.mu.RLock()
	snapshot := make(map[model.CollectionId]*collection.Collection, len(r.collections))
	for id, c := range r.collections {
		snapshot[id] = c
	}
	r.mu.RUnlock()

	errs := make(map[model.CollectionId]error)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, r.settings.CommitWorkers)

	for id, c := range snapshot {
		wg.Add(1)
		sem <- struct{}{}
		go func(id model.CollectionId, c *collection.Collection) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.Commit(); err != nil {
				mu.Lock()
				errs[id] = err
				mu.Unlock()
			}
		}(id, c)
	}
	wg.Wait()

	return errs
}
