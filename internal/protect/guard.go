package protect

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/classify"
	"landwarden.gg/internal/correlate"
	"landwarden.gg/internal/persistence/audit"
)

// Event is one world-mutating action delivered for authorization. Actor is
// the zero UUID when the event stream did not attribute the action; the
// guard then recovers the actor from the correlation window.
type Event struct {
	Kind    ActionKind
	Actor   uuid.UUID
	World   string
	Pos     claim.BlockPos
	BlockID string
	At      time.Time
	// Bypass skips all checks. Set for administrators in override mode.
	Bypass bool
}

// Decision is the guard's verdict on one event.
type Decision struct {
	Allowed  bool
	Required claim.TrustLevel
	// Actor is the resolved actor, zero if the event stayed anonymous.
	Actor uuid.UUID
	// Notify is set when a denial message should be shown to the actor.
	Notify bool
}

// Guard authorizes world events. It records player interactions into the
// correlation window and uses the window to attribute later actor-less
// mutations to the player who caused them.
type Guard struct {
	auth     *Authority
	window   *correlate.Window
	classify classify.Func
	notify   *Notifier
	log      *zap.Logger
}

func NewGuard(auth *Authority, window *correlate.Window, cf classify.Func, notify *Notifier, log *zap.Logger) *Guard {
	if window == nil {
		window = correlate.NewWindow(correlate.DefaultTimeout)
	}
	if cf == nil {
		cf = classify.DefaultGroups().Classify
	}
	if notify == nil {
		notify = NewNotifier(DenialCooldown)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{auth: auth, window: window, classify: cf, notify: notify, log: log}
}

// RecordInteraction remembers that a player touched a block position, so a
// following actor-less mutation there can be attributed to them.
func (g *Guard) RecordInteraction(player uuid.UUID, world string, pos claim.BlockPos, now time.Time) {
	g.window.Record(player, world, pos, now)
}

// Required returns the trust level an action on a block needs.
func (g *Guard) Required(kind ActionKind, blockID string) claim.TrustLevel {
	return RequiredLevel(kind, g.classify(blockID))
}

// Allow authorizes one event. Anonymous events that cannot be correlated
// are allowed only on unclaimed land.
func (g *Guard) Allow(ev Event) Decision {
	if ev.Bypass {
		return Decision{Allowed: true, Actor: ev.Actor}
	}
	required := RequiredLevel(ev.Kind, g.classify(ev.BlockID))
	d := Decision{Required: required, Actor: ev.Actor}

	if d.Actor == (uuid.UUID{}) {
		if rec, ok := g.lookup(ev); ok {
			d.Actor = rec.Player
		}
	}

	x, z := float64(ev.Pos.X), float64(ev.Pos.Z)
	if d.Actor == (uuid.UUID{}) {
		// Uncorrelated mutation: only raw ownership can be consulted.
		_, owned := g.auth.OwnerAt(ev.World, x, z)
		d.Allowed = !owned && g.auth.Ready()
		return d
	}

	d.Allowed = g.auth.HasPermissionAt(d.Actor, ev.World, x, z, required)
	if !d.Allowed {
		d.Notify = g.notify.Allow(d.Actor)
		g.auth.writeAudit(audit.Entry{
			Kind: audit.KindDeny, Player: d.Actor.String(),
			World: ev.World, ChunkX: claim.ChunkCoord(x), ChunkZ: claim.ChunkCoord(z),
			Level: required.Key(), Code: "E_NO_PERMISSION",
		})
		return d
	}
	if ev.Kind == ActionBreak {
		// The break consumed the interaction; a second break at the same
		// position must correlate on its own.
		g.window.Forget(ev.World, ev.Pos)
	}
	return d
}

// AllowPvP reports whether one player may damage another at a position.
func (g *Guard) AllowPvP(world string, pos claim.BlockPos) bool {
	return !g.auth.IsPvPDisabledAt(world, float64(pos.X), float64(pos.Z))
}

func (g *Guard) lookup(ev Event) (correlate.Interaction, bool) {
	if rec, ok := g.window.LookupExact(ev.World, ev.Pos, ev.At); ok {
		return rec, true
	}
	if ev.Kind == ActionPlace {
		// A placement lands adjacent to the block the player aimed at.
		return g.window.LookupNearby(ev.World, ev.Pos, ev.At)
	}
	return correlate.Interaction{}, false
}
