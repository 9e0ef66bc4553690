package catalog

// Store exposes catalog retrieval for HTTP handlers and the mention matcher.
type Store interface {
	List() []Disease
	FindByID(id string) (Disease, bool)
}

// MemoryStore implements Store with an in-memory slice; the catalog is fixed
// at startup.
type MemoryStore struct {
	items []Disease
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied entries.
func NewMemoryStore(items []Disease) *MemoryStore {
	return &MemoryStore{items: append([]Disease(nil), items...)}
}

// List returns a copy of the catalog.
func (s *MemoryStore) List() []Disease {
	return append([]Disease(nil), s.items...)
}

// FindByID looks up a catalog entry by its raw class label.
func (s *MemoryStore) FindByID(id string) (Disease, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Disease{}, false
}
