package claim

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TrustedPlayer is one trust grant: the trusted player's last known name and
// the level they hold.
type TrustedPlayer struct {
	Name  string
	Level TrustLevel
}

// PlayerClaims holds all claims owned by one player plus that player's trust
// grants to other players. Safe for concurrent use.
type PlayerClaims struct {
	owner uuid.UUID

	mu      sync.RWMutex
	claims  map[ChunkKey]Claim
	trusted map[uuid.UUID]TrustedPlayer
}

func NewPlayerClaims(owner uuid.UUID) *PlayerClaims {
	return &PlayerClaims{
		owner:   owner,
		claims:  make(map[ChunkKey]Claim),
		trusted: make(map[uuid.UUID]TrustedPlayer),
	}
}

func (p *PlayerClaims) Owner() uuid.UUID { return p.owner }

func (p *PlayerClaims) ClaimCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.claims)
}

// AddClaim records a claim. Adding the same chunk twice is a no-op.
func (p *PlayerClaims) AddClaim(c Claim) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.claims[c.Key()]; !ok {
		p.claims[c.Key()] = c
	}
}

// RemoveClaim removes a claim by chunk identity.
func (p *PlayerClaims) RemoveClaim(world string, chunkX, chunkZ int) bool {
	k := ChunkKey{World: world, X: chunkX, Z: chunkZ}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.claims[k]; !ok {
		return false
	}
	delete(p.claims, k)
	return true
}

// RemoveAll removes every claim and returns the removed records.
func (p *PlayerClaims) RemoveAll() []Claim {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Claim, 0, len(p.claims))
	for _, c := range p.claims {
		out = append(out, c)
	}
	p.claims = make(map[ChunkKey]Claim)
	return out
}

func (p *PlayerClaims) HasClaim(world string, chunkX, chunkZ int) bool {
	_, ok := p.ClaimAt(world, chunkX, chunkZ)
	return ok
}

// ClaimAt returns a copy of the claim record for a chunk, if owned.
func (p *PlayerClaims) ClaimAt(world string, chunkX, chunkZ int) (Claim, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.claims[ChunkKey{World: world, X: chunkX, Z: chunkZ}]
	return c, ok
}

// Claims returns copies of all claims, oldest first for stable display.
func (p *PlayerClaims) Claims() []Claim {
	p.mu.RLock()
	out := make([]Claim, 0, len(p.claims))
	for _, c := range p.claims {
		out = append(out, c)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClaimedAt != out[j].ClaimedAt {
			return out[i].ClaimedAt < out[j].ClaimedAt
		}
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// SetPvP flips the per-claim PvP flag. Only meaningful on admin claims;
// player claims follow the server-wide policy regardless.
func (p *PlayerClaims) SetPvP(world string, chunkX, chunkZ int, enabled bool) bool {
	k := ChunkKey{World: world, X: chunkX, Z: chunkZ}
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.claims[k]
	if !ok {
		return false
	}
	c.PvPEnabled = enabled
	p.claims[k] = c
	return true
}

// SetTrusted adds or updates a trust grant. Granting TrustNone removes the
// entry instead; the table never holds "no access" rows.
func (p *PlayerClaims) SetTrusted(id uuid.UUID, name string, level TrustLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if level == TrustNone {
		delete(p.trusted, id)
		return
	}
	p.trusted[id] = TrustedPlayer{Name: name, Level: level}
}

// RemoveTrusted removes a grant and returns the stored name.
func (p *PlayerClaims) RemoveTrusted(id uuid.UUID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tp, ok := p.trusted[id]
	if !ok {
		return "", false
	}
	delete(p.trusted, id)
	return tp.Name, true
}

// TrustLevelFor returns the grant held by a player, or TrustNone.
func (p *PlayerClaims) TrustLevelFor(id uuid.UUID) TrustLevel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trusted[id].Level
}

// HasPermission reports whether a player's grant satisfies the required
// level. Absence of a grant is TrustNone.
func (p *PlayerClaims) HasPermission(id uuid.UUID, required TrustLevel) bool {
	return p.TrustLevelFor(id).Satisfies(required)
}

func (p *PlayerClaims) IsTrusted(id uuid.UUID) bool {
	return p.TrustLevelFor(id) != TrustNone
}

// Trusted returns a copy of the trust table.
func (p *PlayerClaims) Trusted() map[uuid.UUID]TrustedPlayer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[uuid.UUID]TrustedPlayer, len(p.trusted))
	for id, tp := range p.trusted {
		out[id] = tp
	}
	return out
}

// TrustedByName finds a trusted player by stored name, case-insensitively.
func (p *PlayerClaims) TrustedByName(name string) (uuid.UUID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for id, tp := range p.trusted {
		if strings.EqualFold(tp.Name, name) {
			return id, true
		}
	}
	return uuid.UUID{}, false
}
