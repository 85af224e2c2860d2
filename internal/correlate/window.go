// Package correlate bridges world events that arrive without an actor. The
// engine delivers a player's interaction (intent) and the resulting block
// mutation (effect) as separate events; the window remembers who touched
// which position recently so the mutation can be attributed.
package correlate

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"landwarden.gg/internal/claim"
)

// DefaultTimeout is how long an interaction stays attributable. Past it a
// mutation is treated as anonymous and checked against raw ownership only.
const DefaultTimeout = 5 * time.Second

// Interaction is one recorded player-touches-position event.
type Interaction struct {
	Player uuid.UUID
	World  string
	Pos    claim.BlockPos
	At     time.Time
}

// Window is a short-lived concurrent table of recent interactions. Entries
// expire lazily: lookups compare against the caller's clock, and the backing
// cache evicts stale entries in the background to bound memory.
type Window struct {
	timeout  time.Duration
	byBlock  *gocache.Cache // canonical block-position key
	byPlayer *gocache.Cache // most recent interaction per player
}

func NewWindow(timeout time.Duration) *Window {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Window{
		timeout:  timeout,
		byBlock:  gocache.New(timeout, timeout),
		byPlayer: gocache.New(timeout, timeout),
	}
}

func blockKey(world string, pos claim.BlockPos) string {
	return world + "|" + pos.String()
}

// Record stores the interaction under its block position and as the
// player's most recent one, overwriting previous entries for either key.
func (w *Window) Record(player uuid.UUID, world string, pos claim.BlockPos, now time.Time) {
	rec := Interaction{Player: player, World: world, Pos: pos, At: now}
	w.byBlock.Set(blockKey(world, pos), rec, w.timeout)
	w.byPlayer.Set(player.String(), rec, w.timeout)
}

func (w *Window) fresh(rec Interaction, now time.Time) bool {
	return now.Sub(rec.At) <= w.timeout
}

// LookupExact returns the unexpired interaction recorded at exactly this
// position, if any.
func (w *Window) LookupExact(world string, pos claim.BlockPos, now time.Time) (Interaction, bool) {
	v, ok := w.byBlock.Get(blockKey(world, pos))
	if !ok {
		return Interaction{}, false
	}
	rec := v.(Interaction)
	if !w.fresh(rec, now) {
		return Interaction{}, false
	}
	return rec, true
}

// LookupNearby attributes a position to a player who recently interacted at
// or adjacent to it (Chebyshev distance 1), since a placement lands next to
// the block the player aimed at. The exact position wins; among several
// qualifying players the pick is arbitrary.
func (w *Window) LookupNearby(world string, pos claim.BlockPos, now time.Time) (Interaction, bool) {
	if rec, ok := w.LookupExact(world, pos, now); ok {
		return rec, true
	}
	for _, item := range w.byPlayer.Items() {
		rec := item.Object.(Interaction)
		if rec.World != world || !w.fresh(rec, now) {
			continue
		}
		if rec.Pos.ChebyshevWithin(pos, 1) {
			return rec, true
		}
	}
	return Interaction{}, false
}

// Forget drops the entry for a block position once its event is consumed.
func (w *Window) Forget(world string, pos claim.BlockPos) {
	w.byBlock.Delete(blockKey(world, pos))
}
