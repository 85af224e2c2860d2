package playtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTrackerSessions(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tr.Load(id, Record{Seconds: 3600})
	assert.InDelta(t, 1.0, tr.Hours(id, t0), 1e-9)

	tr.Join(id, t0)
	assert.InDelta(t, 1.5, tr.Hours(id, t0.Add(30*time.Minute)), 1e-9)

	tr.Leave(id, t0.Add(30*time.Minute))
	assert.InDelta(t, 1.5, tr.Hours(id, t0.Add(2*time.Hour)), 1e-9)

	// Leave without a session is a no-op.
	tr.Leave(id, t0.Add(3*time.Hour))
	assert.InDelta(t, 1.5, tr.Hours(id, t0.Add(3*time.Hour)), 1e-9)
}

func TestTrackerSnapshotDoesNotDoubleCount(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tr.Join(id, t0)
	snap1 := tr.Snapshot(t0.Add(10 * time.Minute))
	assert.InDelta(t, 600, snap1[id].Seconds, 1e-6)

	snap2 := tr.Snapshot(t0.Add(20 * time.Minute))
	assert.InDelta(t, 1200, snap2[id].Seconds, 1e-6)

	tr.Leave(id, t0.Add(20*time.Minute))
	snap3 := tr.Snapshot(t0.Add(40 * time.Minute))
	assert.InDelta(t, 1200, snap3[id].Seconds, 1e-6)
}

func TestTrackerGrants(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()

	tr.GrantSlots(id, 2)
	tr.GrantSlots(id, 3)
	tr.GrantMax(id, 10)
	g := tr.Grants(id)
	assert.Equal(t, 5, g.BonusSlots)
	assert.Equal(t, 10, g.BonusMax)
	assert.False(t, g.Unlimited)

	tr.SetUnlimited(id, true)
	assert.True(t, tr.Grants(id).Unlimited)
	tr.SetUnlimited(id, false)
	assert.False(t, tr.Grants(id).Unlimited)
}
