package company

import "github.com/benchmarket/benchchat/internal/model/chat"

// Store exposes company lookups for HTTP handlers and auth.
type Store interface {
	List() []Company
	FindByID(id string) (Company, bool)
	ResolveToken(token string) (chat.Identity, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Company
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied companies.
func NewMemoryStore(items []Company) *MemoryStore {
	return &MemoryStore{items: append([]Company(nil), items...)}
}

// List returns the known companies.
func (s *MemoryStore) List() []Company {
	return append([]Company(nil), s.items...)
}

// FindByID looks up a company by identifier.
func (s *MemoryStore) FindByID(id string) (Company, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Company{}, false
}

// ResolveToken maps a bearer token to the member identity it belongs to.
func (s *MemoryStore) ResolveToken(token string) (chat.Identity, bool) {
	if token == "" {
		return chat.Identity{}, false
	}
	for _, item := range s.items {
		for _, m := range item.Members {
			if m.Token == token {
				return item.Identity(m), true
			}
		}
	}
	return chat.Identity{}, false
}
