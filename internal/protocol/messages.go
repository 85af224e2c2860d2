package protocol

// Pos is an integer block position.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	Server          string        `json:"server"`
	Policy          PolicySummary `json:"policy"`
}

// PolicySummary mirrors the quota and PvP config so clients can render
// limits without a round trip.
type PolicySummary struct {
	StartingClaims    int     `json:"starting_claims"`
	ClaimsPerHour     float64 `json:"claims_per_hour"`
	MaxClaims         int     `json:"max_claims"`
	ClaimBufferSize   int     `json:"claim_buffer_size"`
	PvPInPlayerClaims bool    `json:"pvp_in_player_claims"`
	ChunkSize         int     `json:"chunk_size"`
}

// CMD (client -> server). Op selects the operation; the remaining fields
// are op-specific and ignored where they do not apply.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	Player string  `json:"player,omitempty"`
	Target string  `json:"target,omitempty"`
	Name   string  `json:"name,omitempty"`
	Level  string  `json:"level,omitempty"`
	World  string  `json:"world,omitempty"`
	X      float64 `json:"x,omitempty"`
	Z      float64 `json:"z,omitempty"`
	Pos    *Pos    `json:"pos,omitempty"`
	Action string  `json:"action,omitempty"`
	Block  string  `json:"block,omitempty"`
	Grant  string  `json:"grant,omitempty"`
	Amount int     `json:"amount,omitempty"`
	Enable *bool   `json:"enable,omitempty"`
	Bypass bool    `json:"bypass,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`

	Allowed  *bool        `json:"allowed,omitempty"`
	Notify   bool         `json:"notify,omitempty"`
	Required string       `json:"required,omitempty"`
	Claim    *ClaimInfo   `json:"claim,omitempty"`
	Claims   []ClaimInfo  `json:"claims,omitempty"`
	Quota    *QuotaInfo   `json:"quota,omitempty"`
	Trusted  []TrustEntry `json:"trusted,omitempty"`
	Count    int          `json:"count,omitempty"`
}

type ClaimInfo struct {
	World       string `json:"world"`
	ChunkX      int    `json:"chunk_x"`
	ChunkZ      int    `json:"chunk_z"`
	Owner       string `json:"owner"`
	OwnerName   string `json:"owner_name,omitempty"`
	Admin       bool   `json:"admin,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	PvPEnabled  bool   `json:"pvp_enabled"`
	ClaimedAt   int64  `json:"claimed_at"`
}

type QuotaInfo struct {
	Current        int     `json:"current"`
	Max            int     `json:"max"`
	Unlimited      bool    `json:"unlimited"`
	HoursUntilNext float64 `json:"hours_until_next"`
}

type TrustEntry struct {
	Player string `json:"player"`
	Name   string `json:"name,omitempty"`
	Level  string `json:"level"`
}
