package protect

import (
	"fmt"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/classify"
)

// ActionKind tags a world-mutating event with what the actor is doing.
type ActionKind int

const (
	ActionInteract ActionKind = iota
	ActionPlace
	ActionBreak
	ActionDamage
	ActionPickup
	ActionUse
)

func (k ActionKind) String() string {
	switch k {
	case ActionInteract:
		return "interact"
	case ActionPlace:
		return "place"
	case ActionBreak:
		return "break"
	case ActionDamage:
		return "damage"
	case ActionPickup:
		return "pickup"
	case ActionUse:
		return "use"
	}
	return "unknown"
}

// ParseActionKind maps a wire tag to an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "interact":
		return ActionInteract, nil
	case "place":
		return ActionPlace, nil
	case "break":
		return ActionBreak, nil
	case "damage":
		return ActionDamage, nil
	case "pickup":
		return ActionPickup, nil
	case "use":
		return ActionUse, nil
	}
	return 0, fmt.Errorf("unknown action kind %q", s)
}

// RequiredLevel maps an action on a block category to the trust level it
// needs. Unclassified interactions require Use: the least permissive level
// that still allows ordinary play, never full access.
func RequiredLevel(kind ActionKind, category classify.Category) claim.TrustLevel {
	switch kind {
	case ActionPlace, ActionBreak, ActionPickup:
		return claim.TrustBuild
	case ActionDamage:
		return claim.TrustDamage
	case ActionInteract, ActionUse:
		switch category {
		case classify.CategoryWorkstation:
			return claim.TrustWorkstation
		case classify.CategoryContainer:
			return claim.TrustContainer
		default:
			return claim.TrustUse
		}
	}
	return claim.TrustBuild
}
