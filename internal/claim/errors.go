package claim

import "errors"

var (
	// ErrAlreadyClaimed is returned when the target chunk is owned by a
	// different player.
	ErrAlreadyClaimed = errors.New("chunk already claimed")

	// ErrNotOwner is returned when an unclaim or modify targets a chunk the
	// caller does not own.
	ErrNotOwner = errors.New("not the claim owner")

	// ErrLimitReached is returned when a claim would exceed the player's
	// current quota.
	ErrLimitReached = errors.New("claim limit reached")

	// ErrBufferZone is returned when the target chunk sits inside another
	// player's claim buffer.
	ErrBufferZone = errors.New("too close to another player's claim")

	// ErrInvalidTrustLevel is returned for an unparseable trust level.
	ErrInvalidTrustLevel = errors.New("invalid trust level")

	// ErrStorageUnavailable is returned when the persistence layer is not
	// ready. Gated actions are denied, never allowed, in that state.
	ErrStorageUnavailable = errors.New("claim storage unavailable")
)
