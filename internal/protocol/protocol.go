// Package protocol defines the JSON messages of the admin/query channel.
package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeResult  = "RESULT"
)

// Command ops.
const (
	OpClaim       = "claim"
	OpUnclaim     = "unclaim"
	OpUnclaimAll  = "unclaim_all"
	OpClaims      = "claims"
	OpTrust       = "trust"
	OpUntrust     = "untrust"
	OpTrustedList = "trusted_list"
	OpCheck       = "check"
	OpEvent       = "event"
	OpInteract    = "interact"
	OpPvP         = "pvp"
	OpInfo        = "info"
	OpQuota       = "quota"
	OpAdminClaim  = "admin_claim"
	OpAdminPvP    = "admin_pvp"
	OpJoin        = "join"
	OpLeave       = "leave"
	OpGrant       = "grant"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
