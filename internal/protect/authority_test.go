package protect

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/claim/quota"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store/memstore"
)

func testOptions() Options {
	return Options{
		Limits:            quota.Limits{StartingClaims: 4, ClaimsPerHour: 2.0, MaxClaims: 50},
		PvPInPlayerClaims: true,
		ClaimBufferSize:   0,
	}
}

func newTestAuthority(t *testing.T, opts Options) (*Authority, *playtime.Tracker, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	pt := playtime.NewTracker()
	a := NewAuthority(opts, st, pt, nil, nil)
	require.NoError(t, a.Load())
	return a, pt, st
}

func TestTrustScenario(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	owner := uuid.New()
	trusted := uuid.New()
	stranger := uuid.New()
	now := time.Now()

	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)
	require.NoError(t, a.Trust(owner, trusted, "Pia", claim.TrustContainer))

	require.True(t, a.HasPermissionAt(trusted, "w", 5, 5, claim.TrustContainer))
	require.False(t, a.HasPermissionAt(trusted, "w", 5, 5, claim.TrustBuild))
	require.False(t, a.HasPermissionAt(stranger, "w", 5, 5, claim.TrustUse))

	// Owners always hold implicit Build; unclaimed land is unrestricted.
	require.True(t, a.HasPermissionAt(owner, "w", 5, 5, claim.TrustBuild))
	require.True(t, a.HasPermissionAt(stranger, "w", 500, 500, claim.TrustBuild))
}

func TestUntrustRevokes(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	owner := uuid.New()
	trusted := uuid.New()
	now := time.Now()

	_, err := a.ClaimChunk(owner, "w", 0, 0, now)
	require.NoError(t, err)
	require.NoError(t, a.Trust(owner, trusted, "Pia", claim.TrustBuild))
	require.True(t, a.HasPermissionAt(trusted, "w", 0, 0, claim.TrustBuild))

	name, removed, err := a.Untrust(owner, trusted)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, "Pia", name)
	require.False(t, a.HasPermissionAt(trusted, "w", 0, 0, claim.TrustUse))

	_, removed, err = a.Untrust(owner, trusted)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestTrustedByName(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	owner := uuid.New()
	trusted := uuid.New()

	require.NoError(t, a.Trust(owner, trusted, "Pia", claim.TrustUse))
	id, ok := a.TrustedByName(owner, "pia")
	require.True(t, ok)
	require.Equal(t, trusted, id)

	_, ok = a.TrustedByName(owner, "nobody")
	require.False(t, ok)
}

func TestClaimUnclaimRoundTrip(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	owner := uuid.New()
	now := time.Now()

	c, err := a.ClaimChunk(owner, "w", 40, -10, now)
	require.NoError(t, err)
	require.Equal(t, 1, c.ChunkX)
	require.Equal(t, -1, c.ChunkZ)

	got, ok := a.OwnerAt("w", 40, -10)
	require.True(t, ok)
	require.Equal(t, owner, got)

	require.NoError(t, a.UnclaimChunk(owner, "w", 40, -10))
	_, ok = a.OwnerAt("w", 40, -10)
	require.False(t, ok)
	require.Empty(t, a.Claims(owner))
}

func TestClaimConflicts(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	alice := uuid.New()
	bob := uuid.New()
	now := time.Now()

	first, err := a.ClaimChunk(alice, "w", 5, 5, now)
	require.NoError(t, err)

	_, err = a.ClaimChunk(bob, "w", 10, 10, now)
	require.ErrorIs(t, err, claim.ErrAlreadyClaimed)

	// Re-claiming your own chunk is a no-op returning the existing record.
	again, err := a.ClaimChunk(alice, "w", 10, 10, now)
	require.NoError(t, err)
	require.Equal(t, first.ClaimedAt, again.ClaimedAt)
	require.Equal(t, 1, len(a.Claims(alice)))

	require.ErrorIs(t, a.UnclaimChunk(bob, "w", 5, 5), claim.ErrNotOwner)
}

func TestQuotaEnforced(t *testing.T) {
	opts := testOptions()
	opts.Limits = quota.Limits{StartingClaims: 1, ClaimsPerHour: 0, MaxClaims: 50}
	a, pt, _ := newTestAuthority(t, opts)
	p := uuid.New()
	now := time.Now()

	_, err := a.ClaimChunk(p, "w", 0, 0, now)
	require.NoError(t, err)
	_, err = a.ClaimChunk(p, "w", 100, 0, now)
	require.ErrorIs(t, err, claim.ErrLimitReached)

	st := a.QuotaStatus(p, now)
	require.Equal(t, 1, st.Current)
	require.Equal(t, 1, st.Max)
	require.False(t, st.Unlimited)

	pt.SetUnlimited(p, true)
	_, err = a.ClaimChunk(p, "w", 100, 0, now)
	require.NoError(t, err)
	require.True(t, a.QuotaStatus(p, now).Unlimited)
}

func TestBufferZone(t *testing.T) {
	opts := testOptions()
	opts.ClaimBufferSize = 1
	a, _, _ := newTestAuthority(t, opts)
	alice := uuid.New()
	bob := uuid.New()
	now := time.Now()

	_, err := a.ClaimChunk(alice, "w", 5, 5, now)
	require.NoError(t, err)

	// Chunk (1,0) is adjacent to Alice's (0,0).
	_, err = a.ClaimChunk(bob, "w", 37, 5, now)
	require.ErrorIs(t, err, claim.ErrBufferZone)

	// Chunk (2,0) is outside the buffer.
	_, err = a.ClaimChunk(bob, "w", 69, 5, now)
	require.NoError(t, err)

	// The buffer never blocks the owner's own expansion.
	_, err = a.ClaimChunk(alice, "w", 5, 37, now)
	require.NoError(t, err)
}

func TestUnclaimAll(t *testing.T) {
	a, _, st := newTestAuthority(t, testOptions())
	p := uuid.New()
	now := time.Now()

	for _, x := range []float64{0, 100, 200} {
		_, err := a.ClaimChunk(p, "w", x, 0, now)
		require.NoError(t, err)
	}
	n, err := a.UnclaimAll(p)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	_, ok := a.OwnerAt("w", 100, 0)
	require.False(t, ok)

	a.Flush()
	set, err := st.LoadPlayerClaims(p)
	require.NoError(t, err)
	require.Equal(t, 0, set.ClaimCount())

	n, err = a.UnclaimAll(uuid.New())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestAdminClaimPvP(t *testing.T) {
	a, _, _ := newTestAuthority(t, testOptions())
	player := uuid.New()
	now := time.Now()

	// Admin claims start with PvP off regardless of the global policy.
	_, err := a.CreateAdminClaim("w", 5, 5, "Spawn")
	require.NoError(t, err)
	require.True(t, a.IsPvPDisabledAt("w", 5, 5))

	require.NoError(t, a.SetAdminPvP("w", 5, 5, true))
	require.False(t, a.IsPvPDisabledAt("w", 5, 5))

	// Player claims follow the server-wide policy, never a per-claim flag.
	_, err = a.ClaimChunk(player, "w", 100, 100, now)
	require.NoError(t, err)
	require.False(t, a.IsPvPDisabledAt("w", 100, 100))

	// Unclaimed land always has PvP on.
	require.False(t, a.IsPvPDisabledAt("w", 500, 500))

	require.ErrorIs(t, a.SetAdminPvP("w", 100, 100, false), claim.ErrNotOwner)
}

func TestPvPPolicyDisabledInPlayerClaims(t *testing.T) {
	opts := testOptions()
	opts.PvPInPlayerClaims = false
	a, _, _ := newTestAuthority(t, opts)
	p := uuid.New()

	_, err := a.ClaimChunk(p, "w", 0, 0, time.Now())
	require.NoError(t, err)
	require.True(t, a.IsPvPDisabledAt("w", 0, 0))
}

func TestClaimInfo(t *testing.T) {
	a, _, st := newTestAuthority(t, testOptions())
	p := uuid.New()
	require.NoError(t, st.SetPlayerName(p, "Alice"))

	_, err := a.ClaimChunk(p, "w", 5, 5, time.Now())
	require.NoError(t, err)

	info, ok := a.ClaimInfo("w", 5, 5)
	require.True(t, ok)
	require.Equal(t, p, info.Owner)
	require.Equal(t, "Alice", info.OwnerName)
	require.False(t, info.Admin)

	_, err = a.CreateAdminClaim("w", 100, 100, "Spawn")
	require.NoError(t, err)
	info, ok = a.ClaimInfo("w", 100, 100)
	require.True(t, ok)
	require.True(t, info.Admin)
	require.Equal(t, "Spawn", info.OwnerName)

	_, ok = a.ClaimInfo("w", 500, 500)
	require.False(t, ok)
}

func TestFailClosedWhenNotLoaded(t *testing.T) {
	a := NewAuthority(testOptions(), memstore.New(), nil, nil, nil)
	p := uuid.New()

	// Even unclaimed land is denied until storage has loaded.
	require.False(t, a.HasPermissionAt(p, "w", 5, 5, claim.TrustUse))
	require.True(t, a.IsPvPDisabledAt("w", 5, 5))

	_, err := a.ClaimChunk(p, "w", 5, 5, time.Now())
	require.ErrorIs(t, err, claim.ErrStorageUnavailable)
	require.ErrorIs(t, a.UnclaimChunk(p, "w", 5, 5), claim.ErrStorageUnavailable)
	require.ErrorIs(t, a.Trust(p, uuid.New(), "x", claim.TrustUse), claim.ErrStorageUnavailable)
}

func TestPersistAndReload(t *testing.T) {
	st := memstore.New()
	opts := testOptions()
	{
		a := NewAuthority(opts, st, nil, nil, nil)
		require.NoError(t, a.Load())
		owner := uuid.New()
		trusted := uuid.New()
		_, err := a.ClaimChunk(owner, "w", 5, 5, time.Now())
		require.NoError(t, err)
		require.NoError(t, a.Trust(owner, trusted, "Pia", claim.TrustWorkstation))
		a.Flush()

		// Index snapshot write, as the periodic saver does it.
		require.NoError(t, st.SaveIndexSnapshot(a.SnapshotRows()))
	}

	a2 := NewAuthority(opts, st, nil, nil, nil)
	require.NoError(t, a2.Load())
	info, ok := a2.ClaimInfo("w", 5, 5)
	require.True(t, ok)
	grants := a2.Trusted(info.Owner)
	require.Len(t, grants, 1)
	for _, tp := range grants {
		require.Equal(t, claim.TrustWorkstation, tp.Level)
		require.Equal(t, "Pia", tp.Name)
	}
}

func TestTrustOnlyOwnerSurvivesReload(t *testing.T) {
	st := memstore.New()
	opts := testOptions()
	owner := uuid.New()
	friend := uuid.New()
	{
		a := NewAuthority(opts, st, nil, nil, nil)
		require.NoError(t, a.Load())
		require.NoError(t, a.Trust(owner, friend, "Kita", claim.TrustContainer))
		a.Flush()
	}

	// The owner holds no claims, only a grant. It must still load.
	a2 := NewAuthority(opts, st, nil, nil, nil)
	require.NoError(t, a2.Load())
	grants := a2.Trusted(owner)
	require.Len(t, grants, 1)
	require.Equal(t, claim.TrustContainer, grants[friend].Level)

	// A later mutation saves the full reloaded set, not a fresh empty one.
	require.NoError(t, a2.Trust(owner, uuid.New(), "Pia", claim.TrustUse))
	a2.Flush()
	stored, err := st.LoadPlayerClaims(owner)
	require.NoError(t, err)
	require.Equal(t, claim.TrustContainer, stored.TrustLevelFor(friend))
}

// conflictStore hands out the same chunk for every owner, like a snapshot
// corrupted by overlapping rows.
type conflictStore struct {
	*memstore.Store
	owners []uuid.UUID
}

func (c *conflictStore) Owners() ([]uuid.UUID, error) { return c.owners, nil }

func (c *conflictStore) LoadPlayerClaims(owner uuid.UUID) (*claim.PlayerClaims, error) {
	set := claim.NewPlayerClaims(owner)
	set.AddClaim(claim.NewClaim("w", 0, 0))
	return set, nil
}

func TestLoadDropsConflictingRowsFromBothViews(t *testing.T) {
	owners := []uuid.UUID{uuid.New(), uuid.New()}
	st := &conflictStore{Store: memstore.New(), owners: owners}
	a := NewAuthority(testOptions(), st, nil, nil, nil)
	require.NoError(t, a.Load())

	require.Equal(t, 1, a.TotalClaims())
	kept := len(a.Claims(owners[0])) + len(a.Claims(owners[1]))
	require.Equal(t, 1, kept, "the losing row must leave the claim set too")
	require.Len(t, a.SnapshotRows(), 1)

	// The loser's quota is not consumed by the dropped row.
	for _, o := range owners {
		if len(a.Claims(o)) == 0 {
			require.Equal(t, 0, a.QuotaStatus(o, time.Now()).Current)
		}
	}
}
