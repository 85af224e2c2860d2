// Package memstore is the in-memory store used by tests and the "memory"
// storage backend.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	claims   map[claim.ChunkKey]store.StoredClaim
	trusts   map[uuid.UUID]map[uuid.UUID]claim.TrustedPlayer
	names    map[uuid.UUID]string
	playtime map[uuid.UUID]playtime.Record
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		claims:   make(map[claim.ChunkKey]store.StoredClaim),
		trusts:   make(map[uuid.UUID]map[uuid.UUID]claim.TrustedPlayer),
		names:    make(map[uuid.UUID]string),
		playtime: make(map[uuid.UUID]playtime.Record),
	}
}

func (s *Store) LoadIndexSnapshot() ([]store.StoredClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.StoredClaim, 0, len(s.claims))
	for _, sc := range s.claims {
		out = append(out, sc)
	}
	return out, nil
}

func (s *Store) SaveIndexSnapshot(rows []store.StoredClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = make(map[claim.ChunkKey]store.StoredClaim, len(rows))
	for _, sc := range rows {
		s.claims[sc.Claim.Key()] = sc
	}
	return nil
}

func (s *Store) Owners() ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	for _, sc := range s.claims {
		seen[sc.Owner] = struct{}{}
	}
	for owner, grants := range s.trusts {
		if len(grants) > 0 {
			seen[owner] = struct{}{}
		}
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) LoadPlayerClaims(owner uuid.UUID) (*claim.PlayerClaims, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := claim.NewPlayerClaims(owner)
	for _, sc := range s.claims {
		if sc.Owner == owner {
			set.AddClaim(sc.Claim)
		}
	}
	for id, tp := range s.trusts[owner] {
		set.SetTrusted(id, tp.Name, tp.Level)
	}
	return set, nil
}

func (s *Store) SavePlayerClaims(set *claim.PlayerClaims) error {
	owner := set.Owner()
	claims := set.Claims()
	trusted := set.Trusted()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sc := range s.claims {
		if sc.Owner == owner {
			delete(s.claims, k)
		}
	}
	for _, c := range claims {
		s.claims[c.Key()] = store.StoredClaim{Owner: owner, Claim: c}
	}
	s.trusts[owner] = trusted
	return nil
}

func (s *Store) PlayerName(id uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[id], nil
}

func (s *Store) SetPlayerName(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
	return nil
}

func (s *Store) LoadPlaytime() (map[uuid.UUID]playtime.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]playtime.Record, len(s.playtime))
	for id, rec := range s.playtime {
		out[id] = rec
	}
	return out, nil
}

func (s *Store) SavePlaytime(records map[uuid.UUID]playtime.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range records {
		s.playtime[id] = rec
	}
	return nil
}

func (s *Store) Close() error { return nil }
