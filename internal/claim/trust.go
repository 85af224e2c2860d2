package claim

import "strings"

// TrustLevel is an ordered permission tier a claim owner grants another
// player inside their claims. Higher levels include everything below them.
type TrustLevel int

const (
	// TrustNone means no grant exists. It is never stored as a grant.
	TrustNone TrustLevel = iota
	// TrustUse covers basic interactive blocks (doors, buttons, levers).
	TrustUse
	// TrustContainer adds opening containers (chests, barrels).
	TrustContainer
	// TrustWorkstation adds crafting and processing stations.
	TrustWorkstation
	// TrustDamage adds damaging blocks without fully breaking them.
	TrustDamage
	// TrustBuild is full access: placing and breaking blocks.
	TrustBuild
)

// Satisfies reports whether this level grants at least the required level.
func (t TrustLevel) Satisfies(required TrustLevel) bool {
	return t >= required
}

// Valid reports whether t is one of the defined levels.
func (t TrustLevel) Valid() bool {
	return t >= TrustNone && t <= TrustBuild
}

// Key returns the canonical short key used in commands and persistence.
func (t TrustLevel) Key() string {
	switch t {
	case TrustNone:
		return "none"
	case TrustUse:
		return "use"
	case TrustContainer:
		return "container"
	case TrustWorkstation:
		return "workstation"
	case TrustDamage:
		return "damage"
	case TrustBuild:
		return "build"
	}
	return "invalid"
}

func (t TrustLevel) String() string { return t.Key() }

// Description returns a short human-readable summary for display.
func (t TrustLevel) Description() string {
	switch t {
	case TrustNone:
		return "No access"
	case TrustUse:
		return "Doors & buttons"
	case TrustContainer:
		return "Chests & containers"
	case TrustWorkstation:
		return "Crafting & workstations"
	case TrustDamage:
		return "Damage blocks"
	case TrustBuild:
		return "Full build access"
	}
	return ""
}

// ParseTrustLevel parses a level from its key or name, case-insensitively.
// Unrecognized input returns ErrInvalidTrustLevel; it never defaults.
func ParseTrustLevel(s string) (TrustLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TrustNone, nil
	case "use":
		return TrustUse, nil
	case "container":
		return TrustContainer, nil
	case "workstation":
		return TrustWorkstation, nil
	case "damage":
		return TrustDamage, nil
	case "build":
		return TrustBuild, nil
	}
	return TrustNone, ErrInvalidTrustLevel
}

// AvailableLevels lists the grantable level keys for display.
func AvailableLevels() string {
	keys := []string{
		TrustUse.Key(),
		TrustContainer.Key(),
		TrustWorkstation.Key(),
		TrustDamage.Key(),
		TrustBuild.Key(),
	}
	return strings.Join(keys, ", ")
}
