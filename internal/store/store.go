// Package store defines the persistence provider consumed by the protection
// authority. The core works with any implementation: SQLite and Bolt for
// real deployments, memory for tests.
package store

import (
	"github.com/google/uuid"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
)

// StoredClaim is one ownership row: the claim record plus its owner.
type StoredClaim struct {
	Owner uuid.UUID
	Claim claim.Claim
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use; the core never awaits a save before answering a
// permission query.
type Store interface {
	// LoadIndexSnapshot returns every ownership row. Claim sets are
	// rebuilt from this at startup.
	LoadIndexSnapshot() ([]StoredClaim, error)
	// SaveIndexSnapshot replaces all ownership rows.
	SaveIndexSnapshot([]StoredClaim) error

	// Owners lists every player with persisted data: claim rows, trust
	// grants, or both. Startup loads a claim set for each, so an owner
	// whose only state is trust grants survives a restart.
	Owners() ([]uuid.UUID, error)
	// LoadPlayerClaims rebuilds one player's claim set, including trust
	// grants. Unknown players yield an empty set.
	LoadPlayerClaims(owner uuid.UUID) (*claim.PlayerClaims, error)
	// SavePlayerClaims persists one player's claims and trust grants.
	SavePlayerClaims(set *claim.PlayerClaims) error

	PlayerName(id uuid.UUID) (string, error)
	SetPlayerName(id uuid.UUID, name string) error

	LoadPlaytime() (map[uuid.UUID]playtime.Record, error)
	SavePlaytime(map[uuid.UUID]playtime.Record) error

	Close() error
}
