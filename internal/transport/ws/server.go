// Package ws exposes the claim authority over a WebSocket command channel.
// The game host connects once, feeds world events through it, and issues
// player commands on behalf of connected players.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/protect"
	"landwarden.gg/internal/protocol"
)

type Server struct {
	auth   *protect.Authority
	guard  *protect.Guard
	pt     *playtime.Tracker
	policy protocol.PolicySummary
	log    *zap.Logger

	upgrader websocket.Upgrader
}

// NewServer builds the command endpoint. origins lists the Origin header
// values accepted on upgrade beyond same-host requests; "*" allows any.
func NewServer(auth *protect.Authority, guard *protect.Guard, pt *playtime.Tracker, policy protocol.PolicySummary, origins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		auth:   auth,
		guard:  guard,
		pt:     pt,
		policy: policy,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     checkOrigin(origins),
		},
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host requests, and origins on the allow list.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 64)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				continue
			}
			res := s.handle(cmd)
			b, err := json.Marshal(res)
			if err != nil {
				s.log.Warn("marshal result failed", zap.Error(err))
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return false
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Server:          "landwarden",
		Policy:          s.policy,
	}
	b, err := json.Marshal(welcome)
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}

func (s *Server) handle(cmd protocol.CmdMsg) protocol.ResultMsg {
	if cmd.ProtocolVersion != protocol.Version {
		return errResult(cmd.ID, protocol.ErrProtoBadRequest, "bad protocol_version")
	}
	now := time.Now()

	switch cmd.Op {
	case protocol.OpClaim:
		actor, ok := parseID(cmd.Player)
		if !ok || cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player and world required")
		}
		c, err := s.auth.ClaimChunk(actor, cmd.World, cmd.X, cmd.Z, now)
		if err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		info := claimInfo(c, actor, "")
		return protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ID: cmd.ID, OK: true, Claim: &info}

	case protocol.OpUnclaim:
		actor, ok := parseID(cmd.Player)
		if !ok || cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player and world required")
		}
		if err := s.auth.UnclaimChunk(actor, cmd.World, cmd.X, cmd.Z); err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		return okResult(cmd.ID)

	case protocol.OpUnclaimAll:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		n, err := s.auth.UnclaimAll(actor)
		if err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		res := okResult(cmd.ID)
		res.Count = n
		return res

	case protocol.OpClaims:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		res := okResult(cmd.ID)
		for _, c := range s.auth.Claims(actor) {
			res.Claims = append(res.Claims, claimInfo(c, actor, ""))
		}
		res.Count = len(res.Claims)
		return res

	case protocol.OpTrust:
		owner, ok1 := parseID(cmd.Player)
		target, ok2 := parseID(cmd.Target)
		if !ok1 || !ok2 {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player and target required")
		}
		level, err := claim.ParseTrustLevel(cmd.Level)
		if err != nil {
			return errResult(cmd.ID, protocol.ErrInvalidTrustLevel, "valid levels: "+claim.AvailableLevels())
		}
		if err := s.auth.Trust(owner, target, cmd.Name, level); err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		return okResult(cmd.ID)

	case protocol.OpUntrust:
		owner, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		target, ok := parseID(cmd.Target)
		if !ok {
			// Untrusting by stored name is how in-game commands do it.
			target, ok = s.auth.TrustedByName(owner, cmd.Name)
			if !ok {
				return errResult(cmd.ID, protocol.ErrBadRequest, "target or known name required")
			}
		}
		name, removed, err := s.auth.Untrust(owner, target)
		if err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		res := okResult(cmd.ID)
		if removed {
			res.Message = name
			res.Count = 1
		}
		return res

	case protocol.OpTrustedList:
		owner, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		res := okResult(cmd.ID)
		for id, tp := range s.auth.Trusted(owner) {
			res.Trusted = append(res.Trusted, protocol.TrustEntry{Player: id.String(), Name: tp.Name, Level: tp.Level.Key()})
		}
		res.Count = len(res.Trusted)
		return res

	case protocol.OpCheck:
		actor, ok := parseID(cmd.Player)
		if !ok || cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player and world required")
		}
		kind, err := protect.ParseActionKind(cmd.Action)
		if err != nil {
			return errResult(cmd.ID, protocol.ErrBadRequest, err.Error())
		}
		required := s.guard.Required(kind, cmd.Block)
		allowed := s.auth.HasPermissionAt(actor, cmd.World, cmd.X, cmd.Z, required)
		res := okResult(cmd.ID)
		res.Allowed = &allowed
		res.Required = required.Key()
		return res

	case protocol.OpEvent:
		if cmd.World == "" || cmd.Pos == nil {
			return errResult(cmd.ID, protocol.ErrBadRequest, "world and pos required")
		}
		kind, err := protect.ParseActionKind(cmd.Action)
		if err != nil {
			return errResult(cmd.ID, protocol.ErrBadRequest, err.Error())
		}
		actor, _ := parseID(cmd.Player)
		d := s.guard.Allow(protect.Event{
			Kind:    kind,
			Actor:   actor,
			World:   cmd.World,
			Pos:     claim.BlockPos{X: cmd.Pos.X, Y: cmd.Pos.Y, Z: cmd.Pos.Z},
			BlockID: cmd.Block,
			At:      now,
			Bypass:  cmd.Bypass,
		})
		res := okResult(cmd.ID)
		res.Allowed = &d.Allowed
		res.Notify = d.Notify
		res.Required = d.Required.Key()
		return res

	case protocol.OpInteract:
		actor, ok := parseID(cmd.Player)
		if !ok || cmd.World == "" || cmd.Pos == nil {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player, world and pos required")
		}
		s.guard.RecordInteraction(actor, cmd.World, claim.BlockPos{X: cmd.Pos.X, Y: cmd.Pos.Y, Z: cmd.Pos.Z}, now)
		return okResult(cmd.ID)

	case protocol.OpPvP:
		if cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "world required")
		}
		allowed := !s.auth.IsPvPDisabledAt(cmd.World, cmd.X, cmd.Z)
		res := okResult(cmd.ID)
		res.Allowed = &allowed
		return res

	case protocol.OpInfo:
		if cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "world required")
		}
		res := okResult(cmd.ID)
		if info, ok := s.auth.ClaimInfo(cmd.World, cmd.X, cmd.Z); ok {
			ci := protocol.ClaimInfo{
				World:       info.Key.World,
				ChunkX:      info.Key.X,
				ChunkZ:      info.Key.Z,
				Owner:       info.Owner.String(),
				OwnerName:   info.OwnerName,
				Admin:       info.Admin,
				DisplayName: info.DisplayName,
				PvPEnabled:  info.PvPEnabled,
				ClaimedAt:   info.ClaimedAt,
			}
			res.Claim = &ci
			res.Count = 1
		}
		return res

	case protocol.OpQuota:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		st := s.auth.QuotaStatus(actor, now)
		res := okResult(cmd.ID)
		res.Quota = &protocol.QuotaInfo{
			Current:        st.Current,
			Max:            st.Max,
			Unlimited:      st.Unlimited,
			HoursUntilNext: st.HoursUntilNext,
		}
		return res

	case protocol.OpAdminClaim:
		if cmd.World == "" {
			return errResult(cmd.ID, protocol.ErrBadRequest, "world required")
		}
		c, err := s.auth.CreateAdminClaim(cmd.World, cmd.X, cmd.Z, cmd.Name)
		if err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		info := claimInfo(c, claim.AdminOwnerID, c.DisplayName)
		return protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ID: cmd.ID, OK: true, Claim: &info}

	case protocol.OpAdminPvP:
		if cmd.World == "" || cmd.Enable == nil {
			return errResult(cmd.ID, protocol.ErrBadRequest, "world and enable required")
		}
		if err := s.auth.SetAdminPvP(cmd.World, cmd.X, cmd.Z, *cmd.Enable); err != nil {
			return errResult(cmd.ID, codeFor(err), err.Error())
		}
		return okResult(cmd.ID)

	case protocol.OpJoin:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		s.auth.PlayerJoined(actor, cmd.Name, now)
		return okResult(cmd.ID)

	case protocol.OpLeave:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		s.auth.PlayerLeft(actor, now)
		return okResult(cmd.ID)

	case protocol.OpGrant:
		actor, ok := parseID(cmd.Player)
		if !ok {
			return errResult(cmd.ID, protocol.ErrBadRequest, "player required")
		}
		switch cmd.Grant {
		case "slots":
			s.pt.GrantSlots(actor, cmd.Amount)
		case "max":
			s.pt.GrantMax(actor, cmd.Amount)
		case "unlimited":
			if cmd.Enable == nil {
				return errResult(cmd.ID, protocol.ErrBadRequest, "enable required")
			}
			s.pt.SetUnlimited(actor, *cmd.Enable)
		default:
			return errResult(cmd.ID, protocol.ErrBadRequest, "grant must be slots, max or unlimited")
		}
		return okResult(cmd.ID)
	}

	return errResult(cmd.ID, protocol.ErrBadRequest, "unknown op "+cmd.Op)
}

func okResult(id string) protocol.ResultMsg {
	return protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ID: id, OK: true}
}

func errResult(id, code, msg string) protocol.ResultMsg {
	return protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ID: id, OK: false, Code: code, Message: msg}
}

func parseID(s string) (uuid.UUID, bool) {
	if s == "" {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

func claimInfo(c claim.Claim, owner uuid.UUID, ownerName string) protocol.ClaimInfo {
	return protocol.ClaimInfo{
		World:       c.World,
		ChunkX:      c.ChunkX,
		ChunkZ:      c.ChunkZ,
		Owner:       owner.String(),
		OwnerName:   ownerName,
		Admin:       c.Admin,
		DisplayName: c.DisplayName,
		PvPEnabled:  c.PvPEnabled,
		ClaimedAt:   c.ClaimedAt,
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, claim.ErrAlreadyClaimed):
		return protocol.ErrAlreadyClaimed
	case errors.Is(err, claim.ErrNotOwner):
		return protocol.ErrNotOwner
	case errors.Is(err, claim.ErrLimitReached):
		return protocol.ErrLimitReached
	case errors.Is(err, claim.ErrBufferZone):
		return protocol.ErrBufferZone
	case errors.Is(err, claim.ErrInvalidTrustLevel):
		return protocol.ErrInvalidTrustLevel
	case errors.Is(err, claim.ErrStorageUnavailable):
		return protocol.ErrStorage
	}
	return protocol.ErrInternal
}
