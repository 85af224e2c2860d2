package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Claim layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrAlreadyClaimed    = "E_ALREADY_CLAIMED"
	ErrNotOwner          = "E_NOT_OWNER"
	ErrLimitReached      = "E_LIMIT_REACHED"
	ErrBufferZone        = "E_BUFFER_ZONE"
	ErrInvalidTrustLevel = "E_INVALID_TRUST_LEVEL"
	ErrNoPermission      = "E_NO_PERMISSION"
	ErrStorage           = "E_STORAGE"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrBadRequest:        {},
	ErrAlreadyClaimed:    {},
	ErrNotOwner:          {},
	ErrLimitReached:      {},
	ErrBufferZone:        {},
	ErrInvalidTrustLevel: {},
	ErrNoPermission:      {},
	ErrStorage:           {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
