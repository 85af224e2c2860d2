// Package quota converts accumulated playtime and admin-granted bonuses
// into the number of chunks a player may own.
package quota

import "math"

// Unlimited is the claim count reported for players with the unlimited
// grant. Callers must special-case it for display and never treat it as an
// ordinary numeric limit.
const Unlimited = math.MaxInt32

// HoursAtMax is returned by HoursUntilNextClaim when no further claim can be
// earned through playtime.
const HoursAtMax = -1.0

// Limits is the server-wide quota configuration.
type Limits struct {
	StartingClaims int
	ClaimsPerHour  float64
	MaxClaims      int
}

// Grants are per-player admin-granted bonuses. Slots are added after the
// cap; BonusMax raises the cap itself.
type Grants struct {
	BonusSlots int
	BonusMax   int
	Unlimited  bool
}

// IsUnlimited reports whether a computed claim count is the unlimited
// sentinel.
func IsUnlimited(n int) bool { return n >= Unlimited }

// MaxClaims computes how many chunks a player may currently own.
func MaxClaims(l Limits, playtimeHours float64, g Grants) int {
	if g.Unlimited {
		return Unlimited
	}
	if playtimeHours < 0 {
		playtimeHours = 0
	}
	earned := int(playtimeHours * l.ClaimsPerHour)
	total := l.StartingClaims + earned
	cap := l.MaxClaims + g.BonusMax
	if total > cap {
		total = cap
	}
	return total + g.BonusSlots
}

// HoursUntilNextClaim computes the playtime remaining before the next claim
// unlocks. It returns HoursAtMax when the player is at the server cap or
// when playtime can never earn another claim, and 0 while starting claims
// remain available.
func HoursUntilNextClaim(l Limits, playtimeHours float64, currentClaims int) float64 {
	if currentClaims >= l.MaxClaims {
		return HoursAtMax
	}
	if currentClaims < l.StartingClaims {
		return 0
	}
	if l.ClaimsPerHour <= 0 {
		return HoursAtMax
	}
	need := float64(currentClaims-l.StartingClaims+1)/l.ClaimsPerHour - playtimeHours
	if need < 0 {
		return 0
	}
	return need
}
