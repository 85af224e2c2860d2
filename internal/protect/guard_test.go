package protect

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/classify"
	"landwarden.gg/internal/correlate"
)

func newTestGuard(t *testing.T) (*Guard, *Authority) {
	t.Helper()
	a, _, _ := newTestAuthority(t, testOptions())
	g := NewGuard(a, correlate.NewWindow(correlate.DefaultTimeout), nil, NewNotifier(DenialCooldown), nil)
	return g, a
}

func TestRequiredLevel(t *testing.T) {
	cases := []struct {
		kind     ActionKind
		category classify.Category
		want     claim.TrustLevel
	}{
		{ActionPlace, classify.CategoryGeneric, claim.TrustBuild},
		{ActionBreak, classify.CategoryGeneric, claim.TrustBuild},
		{ActionPickup, classify.CategoryGeneric, claim.TrustBuild},
		{ActionDamage, classify.CategoryGeneric, claim.TrustDamage},
		{ActionInteract, classify.CategoryContainer, claim.TrustContainer},
		{ActionInteract, classify.CategoryWorkstation, claim.TrustWorkstation},
		{ActionInteract, classify.CategoryUse, claim.TrustUse},
		{ActionUse, classify.CategoryGeneric, claim.TrustUse},
	}
	for _, tc := range cases {
		if got := RequiredLevel(tc.kind, tc.category); got != tc.want {
			t.Fatalf("RequiredLevel(%s, %s) = %s, want %s", tc.kind, tc.category, got, tc.want)
		}
	}
}

func TestGuardCorrelatesBreak(t *testing.T) {
	g, a := newTestGuard(t)
	owner := uuid.New()
	now := time.Now()
	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)

	pos := claim.BlockPos{X: 10, Y: 64, Z: 10}
	g.RecordInteraction(owner, "w", pos, now)

	d := g.Allow(Event{Kind: ActionBreak, World: "w", Pos: pos, At: now.Add(time.Second)})
	require.True(t, d.Allowed)
	require.Equal(t, owner, d.Actor)

	// The break consumed the interaction; without a new one the follow-up
	// stays anonymous and claimed land denies it.
	d = g.Allow(Event{Kind: ActionBreak, World: "w", Pos: pos, At: now.Add(2 * time.Second)})
	require.False(t, d.Allowed)
	require.Equal(t, uuid.UUID{}, d.Actor)
}

func TestGuardCorrelatesAdjacentPlacement(t *testing.T) {
	g, a := newTestGuard(t)
	owner := uuid.New()
	now := time.Now()
	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)

	g.RecordInteraction(owner, "w", claim.BlockPos{X: 10, Y: 64, Z: 10}, now)

	// Placement lands next to the block the player aimed at.
	d := g.Allow(Event{Kind: ActionPlace, World: "w", Pos: claim.BlockPos{X: 11, Y: 64, Z: 10}, At: now.Add(time.Second)})
	require.True(t, d.Allowed)
	require.Equal(t, owner, d.Actor)

	// Past the window the placement is anonymous and denied on claimed land.
	d = g.Allow(Event{Kind: ActionPlace, World: "w", Pos: claim.BlockPos{X: 12, Y: 64, Z: 10}, At: now.Add(time.Minute)})
	require.False(t, d.Allowed)
}

func TestGuardAnonymousEvents(t *testing.T) {
	g, a := newTestGuard(t)
	owner := uuid.New()
	now := time.Now()
	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)

	// Anonymous mutation on claimed land is denied.
	d := g.Allow(Event{Kind: ActionBreak, World: "w", Pos: claim.BlockPos{X: 3, Y: 10, Z: 3}, At: now})
	require.False(t, d.Allowed)

	// On unclaimed land it passes.
	d = g.Allow(Event{Kind: ActionBreak, World: "w", Pos: claim.BlockPos{X: 500, Y: 10, Z: 500}, At: now})
	require.True(t, d.Allowed)
}

func TestGuardDeniesByTrustLevel(t *testing.T) {
	g, a := newTestGuard(t)
	owner := uuid.New()
	visitor := uuid.New()
	now := time.Now()
	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)
	require.NoError(t, a.Trust(owner, visitor, "Pia", claim.TrustContainer))

	pos := claim.BlockPos{X: 8, Y: 64, Z: 8}

	d := g.Allow(Event{Kind: ActionInteract, Actor: visitor, World: "w", Pos: pos, BlockID: "Chest_Wooden", At: now})
	require.True(t, d.Allowed)
	require.Equal(t, claim.TrustContainer, d.Required)

	d = g.Allow(Event{Kind: ActionInteract, Actor: visitor, World: "w", Pos: pos, BlockID: "Bench_Furnace", At: now})
	require.False(t, d.Allowed)
	require.Equal(t, claim.TrustWorkstation, d.Required)
	require.True(t, d.Notify)

	// Denial messages are rate limited per player.
	d = g.Allow(Event{Kind: ActionPlace, Actor: visitor, World: "w", Pos: pos, At: now})
	require.False(t, d.Allowed)
	require.False(t, d.Notify)
}

func TestGuardBypass(t *testing.T) {
	g, a := newTestGuard(t)
	owner := uuid.New()
	admin := uuid.New()
	now := time.Now()
	_, err := a.ClaimChunk(owner, "w", 5, 5, now)
	require.NoError(t, err)

	d := g.Allow(Event{Kind: ActionBreak, Actor: admin, World: "w", Pos: claim.BlockPos{X: 5, Y: 64, Z: 5}, At: now, Bypass: true})
	require.True(t, d.Allowed)
}

func TestGuardPvP(t *testing.T) {
	g, a := newTestGuard(t)
	_, err := a.CreateAdminClaim("w", 5, 5, "Arena")
	require.NoError(t, err)

	require.False(t, g.AllowPvP("w", claim.BlockPos{X: 5, Y: 64, Z: 5}))
	require.True(t, g.AllowPvP("w", claim.BlockPos{X: 500, Y: 64, Z: 500}))
}

func TestNotifierCooldown(t *testing.T) {
	n := NewNotifier(time.Hour)
	a := uuid.New()
	b := uuid.New()

	require.True(t, n.Allow(a))
	require.False(t, n.Allow(a))
	// Independent per player.
	require.True(t, n.Allow(b))
}

func TestParseActionKind(t *testing.T) {
	for _, k := range []ActionKind{ActionInteract, ActionPlace, ActionBreak, ActionDamage, ActionPickup, ActionUse} {
		got, err := ParseActionKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	_, err := ParseActionKind("fly")
	require.Error(t, err)
}
