// Package playtime tracks per-player time spent on the server, which drives
// the claim quota, plus the admin-granted claim bonuses that ride along with
// the playtime record.
package playtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"landwarden.gg/internal/claim/quota"
)

// Record is the persisted playtime state for one player.
type Record struct {
	Seconds    float64 `json:"seconds"`
	BonusSlots int     `json:"bonus_slots,omitempty"`
	BonusMax   int     `json:"bonus_max,omitempty"`
	Unlimited  bool    `json:"unlimited,omitempty"`
}

// Hours converts the accumulated seconds to hours.
func (r Record) Hours() float64 { return r.Seconds / 3600 }

// Grants extracts the quota bonuses from the record.
func (r Record) Grants() quota.Grants {
	return quota.Grants{BonusSlots: r.BonusSlots, BonusMax: r.BonusMax, Unlimited: r.Unlimited}
}

// Tracker holds playtime records plus live session starts for online
// players. Hours reported for an online player include the running session.
type Tracker struct {
	mu       sync.Mutex
	records  map[uuid.UUID]Record
	sessions map[uuid.UUID]time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		records:  make(map[uuid.UUID]Record),
		sessions: make(map[uuid.UUID]time.Time),
	}
}

// Load seeds a player's record, typically at startup or first sight.
func (t *Tracker) Load(id uuid.UUID, rec Record) {
	t.mu.Lock()
	t.records[id] = rec
	t.mu.Unlock()
}

// Join starts a session. Re-joining restarts the session clock.
func (t *Tracker) Join(id uuid.UUID, now time.Time) {
	t.mu.Lock()
	t.sessions[id] = now
	t.mu.Unlock()
}

// Leave folds the running session into the record.
func (t *Tracker) Leave(id uuid.UUID, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.sessions[id]
	if !ok {
		return
	}
	delete(t.sessions, id)
	rec := t.records[id]
	if d := now.Sub(start); d > 0 {
		rec.Seconds += d.Seconds()
	}
	t.records[id] = rec
}

// Hours returns total playtime hours including the current session.
func (t *Tracker) Hours(id uuid.UUID, now time.Time) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[id]
	sec := rec.Seconds
	if start, ok := t.sessions[id]; ok {
		if d := now.Sub(start); d > 0 {
			sec += d.Seconds()
		}
	}
	return sec / 3600
}

// Grants returns the player's quota bonuses.
func (t *Tracker) Grants(id uuid.UUID) quota.Grants {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records[id].Grants()
}

// GrantSlots adds bonus claim slots. Additive: granting twice stacks.
func (t *Tracker) GrantSlots(id uuid.UUID, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[id]
	rec.BonusSlots += n
	t.records[id] = rec
}

// GrantMax adds to the player's claim cap. Additive.
func (t *Tracker) GrantMax(id uuid.UUID, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[id]
	rec.BonusMax += n
	t.records[id] = rec
}

// SetUnlimited toggles the unlimited-claims grant.
func (t *Tracker) SetUnlimited(id uuid.UUID, v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.records[id]
	rec.Unlimited = v
	t.records[id] = rec
}

// Snapshot returns persistable records with running sessions folded in.
// Sessions keep running; the folded time is not double counted because the
// base record only advances on Leave.
func (t *Tracker) Snapshot(now time.Time) map[uuid.UUID]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uuid.UUID]Record, len(t.records))
	for id, rec := range t.records {
		out[id] = rec
	}
	for id, start := range t.sessions {
		rec := out[id]
		if d := now.Sub(start); d > 0 {
			rec.Seconds += d.Seconds()
		}
		out[id] = rec
	}
	return out
}
