// Package storetest runs the conformance suite every store backend must
// pass. The protection core relies only on these behaviors.
package storetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store"
)

// Run exercises one backend instance. The store must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	owner := uuid.New()
	friend := uuid.New()

	rows, err := s.LoadIndexSnapshot()
	require.NoError(t, err)
	assert.Empty(t, rows, "fresh store must have no claims")

	// Persist one player's claims and grants.
	set := claim.NewPlayerClaims(owner)
	set.AddClaim(claim.NewClaim("orbis", 0, 0))
	set.AddClaim(claim.NewClaim("orbis", 1, 0))
	set.SetTrusted(friend, "Kita", claim.TrustContainer)
	require.NoError(t, s.SavePlayerClaims(set))

	rows, err = s.LoadIndexSnapshot()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, sc := range rows {
		assert.Equal(t, owner, sc.Owner)
		assert.Equal(t, "orbis", sc.Claim.World)
	}

	loaded, err := s.LoadPlayerClaims(owner)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.ClaimCount())
	assert.Equal(t, claim.TrustContainer, loaded.TrustLevelFor(friend))

	// Saving again after an unclaim drops the stale row.
	set.RemoveClaim("orbis", 1, 0)
	require.NoError(t, s.SavePlayerClaims(set))
	rows, err = s.LoadIndexSnapshot()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, claim.ChunkKey{World: "orbis", X: 0, Z: 0}, rows[0].Claim.Key())

	// Unknown players load as empty sets.
	empty, err := s.LoadPlayerClaims(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.ClaimCount())

	// Admin claim metadata survives a round trip.
	adminSet := claim.NewPlayerClaims(claim.AdminOwnerID)
	adminSet.AddClaim(claim.NewAdminClaim("orbis", 9, 9, "Spawn"))
	require.NoError(t, s.SavePlayerClaims(adminSet))
	adminLoaded, err := s.LoadPlayerClaims(claim.AdminOwnerID)
	require.NoError(t, err)
	c, ok := adminLoaded.ClaimAt("orbis", 9, 9)
	require.True(t, ok)
	assert.True(t, c.Admin)
	assert.False(t, c.PvPEnabled)
	assert.Equal(t, "Spawn", c.DisplayName)

	// Owners covers claim holders and trust-only granters alike.
	granter := uuid.New()
	grantSet := claim.NewPlayerClaims(granter)
	grantSet.SetTrusted(friend, "Kita", claim.TrustUse)
	require.NoError(t, s.SavePlayerClaims(grantSet))
	ids, err := s.Owners()
	require.NoError(t, err)
	assert.Contains(t, ids, owner)
	assert.Contains(t, ids, claim.AdminOwnerID)
	assert.Contains(t, ids, granter, "an owner with grants but no claims must be listed")

	// Index snapshot replace.
	require.NoError(t, s.SaveIndexSnapshot(rows))
	rows2, err := s.LoadIndexSnapshot()
	require.NoError(t, err)
	require.Len(t, rows2, 1)

	// Player names.
	name, err := s.PlayerName(owner)
	require.NoError(t, err)
	assert.Equal(t, "", name, "unknown player has no name")
	require.NoError(t, s.SetPlayerName(owner, "Ragna"))
	require.NoError(t, s.SetPlayerName(owner, "Ragnar")) // rename
	name, err = s.PlayerName(owner)
	require.NoError(t, err)
	assert.Equal(t, "Ragnar", name)

	// Playtime records.
	recs := map[uuid.UUID]playtime.Record{
		owner: {Seconds: 5400, BonusSlots: 1, BonusMax: 5, Unlimited: false},
		friend: {Seconds: 60, Unlimited: true},
	}
	require.NoError(t, s.SavePlaytime(recs))
	got, err := s.LoadPlaytime()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 5400, got[owner].Seconds, 1e-9)
	assert.Equal(t, 1, got[owner].BonusSlots)
	assert.Equal(t, 5, got[owner].BonusMax)
	assert.True(t, got[friend].Unlimited)
}
