package claim

import (
	"time"

	"github.com/google/uuid"
)

// AdminOwnerID is the reserved owner identity for server-owned claims.
var AdminOwnerID = uuid.UUID{}

// AdminDisplayName is used for admin claims without a custom name.
const AdminDisplayName = "Server"

// IsAdminOwner reports whether an owner id is the admin sentinel.
func IsAdminOwner(id uuid.UUID) bool {
	return id == AdminOwnerID
}

// Claim is one owned chunk. Identity is (World, ChunkX, ChunkZ); everything
// except PvPEnabled is immutable after creation. Mutations go through the
// owning PlayerClaims so they stay synchronized.
type Claim struct {
	World       string
	ChunkX      int
	ChunkZ      int
	ClaimedAt   int64 // unix millis
	PvPEnabled  bool
	Admin       bool
	DisplayName string
}

// NewClaim creates a regular player claim. PvP starts enabled; for player
// claims the flag is ignored in favor of the server-wide policy.
func NewClaim(world string, chunkX, chunkZ int) Claim {
	return Claim{
		World:      world,
		ChunkX:     chunkX,
		ChunkZ:     chunkZ,
		ClaimedAt:  time.Now().UnixMilli(),
		PvPEnabled: true,
	}
}

// NewAdminClaim creates a server-owned claim. PvP starts disabled.
func NewAdminClaim(world string, chunkX, chunkZ int, displayName string) Claim {
	if displayName == "" {
		displayName = AdminDisplayName
	}
	return Claim{
		World:       world,
		ChunkX:      chunkX,
		ChunkZ:      chunkZ,
		ClaimedAt:   time.Now().UnixMilli(),
		PvPEnabled:  false,
		Admin:       true,
		DisplayName: displayName,
	}
}

// Key returns the chunk identity of this claim.
func (c Claim) Key() ChunkKey {
	return ChunkKey{World: c.World, X: c.ChunkX, Z: c.ChunkZ}
}
