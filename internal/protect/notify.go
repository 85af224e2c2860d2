package protect

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DenialCooldown is the minimum gap between denial messages to one player.
const DenialCooldown = 2 * time.Second

// Notifier throttles denial messages so a player holding down a button does
// not get one per event. Allow never blocks.
type Notifier struct {
	cooldown time.Duration
	limiters sync.Map // uuid.UUID -> *rate.Limiter
}

func NewNotifier(cooldown time.Duration) *Notifier {
	if cooldown <= 0 {
		cooldown = DenialCooldown
	}
	return &Notifier{cooldown: cooldown}
}

// Allow reports whether a denial message should be shown to the player now.
func (n *Notifier) Allow(player uuid.UUID) bool {
	v, ok := n.limiters.Load(player)
	if !ok {
		v, _ = n.limiters.LoadOrStore(player, rate.NewLimiter(rate.Every(n.cooldown), 1))
	}
	return v.(*rate.Limiter).Allow()
}
