// Package protect combines the ownership index, trust grants, quota and
// correlation window into the authority that answers "may actor X perform an
// action requiring level L at position P".
package protect

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/claim/quota"
	"landwarden.gg/internal/persistence/audit"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store"
)

// AuditSink receives claim lifecycle and denial events. A nil sink disables
// auditing.
type AuditSink interface {
	Write(e audit.Entry) error
}

// Options are the server-wide policy knobs the authority enforces.
type Options struct {
	Limits quota.Limits
	// PvPInPlayerClaims is the global policy applied inside player claims.
	// Per-claim PvP flags only exist on admin claims.
	PvPInPlayerClaims bool
	// ClaimBufferSize is the radius in chunks around a claim where other
	// players may not claim. Zero disables the buffer.
	ClaimBufferSize int
}

// Authority owns the chunk index and all per-player claim sets. Every
// mutation of the index is paired with the matching claim-set change, so the
// two views never diverge. Permission checks never block on persistence;
// saves run fire-and-forget after successful mutations.
type Authority struct {
	opts     Options
	index    *claim.ChunkClaimIndex
	store    store.Store
	playtime *playtime.Tracker
	auditLog AuditSink
	log      *zap.Logger

	mu   sync.RWMutex
	sets map[uuid.UUID]*claim.PlayerClaims

	ready    atomic.Bool
	downOnce sync.Once
	saves    sync.WaitGroup
}

func NewAuthority(opts Options, st store.Store, pt *playtime.Tracker, sink AuditSink, log *zap.Logger) *Authority {
	if log == nil {
		log = zap.NewNop()
	}
	if pt == nil {
		pt = playtime.NewTracker()
	}
	return &Authority{
		opts:     opts,
		index:    claim.NewChunkClaimIndex(),
		store:    st,
		playtime: pt,
		auditLog: sink,
		log:      log,
		sets:     make(map[uuid.UUID]*claim.PlayerClaims),
	}
}

// Load rebuilds the index and claim sets from the store. Until it succeeds
// the authority stays unready and every gated check fails closed.
func (a *Authority) Load() error {
	if a.store == nil {
		return claim.ErrStorageUnavailable
	}
	owners, err := a.store.Owners()
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, owner := range owners {
		set, err := a.store.LoadPlayerClaims(owner)
		if err != nil {
			return err
		}
		for _, c := range set.Claims() {
			if err := a.index.Put(c.Key(), owner); err != nil {
				// Drop the row from the set too, or it would count
				// against the owner's quota and resurface in snapshots.
				set.RemoveClaim(c.World, c.ChunkX, c.ChunkZ)
				a.log.Warn("conflicting ownership row dropped",
					zap.String("chunk", c.Key().String()),
					zap.String("owner", owner.String()))
			}
		}
		a.sets[owner] = set
	}
	a.ready.Store(true)
	a.log.Info("claims loaded",
		zap.Int("chunks", a.index.Len()),
		zap.Int("owners", len(a.sets)))
	return nil
}

// Flush waits for in-flight fire-and-forget saves. Used on shutdown and in
// tests.
func (a *Authority) Flush() { a.saves.Wait() }

// Ready reports whether the backing storage loaded successfully.
func (a *Authority) Ready() bool { return a.ready.Load() }

func (a *Authority) failClosed() bool {
	if a.ready.Load() {
		return false
	}
	a.downOnce.Do(func() {
		a.log.Error("claim storage unavailable, denying all gated actions")
	})
	return true
}

func (a *Authority) setOf(owner uuid.UUID) (*claim.PlayerClaims, bool) {
	a.mu.RLock()
	set, ok := a.sets[owner]
	a.mu.RUnlock()
	return set, ok
}

func (a *Authority) setOrCreate(owner uuid.UUID) *claim.PlayerClaims {
	a.mu.Lock()
	defer a.mu.Unlock()
	set, ok := a.sets[owner]
	if !ok {
		set = claim.NewPlayerClaims(owner)
		a.sets[owner] = set
	}
	return set
}

func (a *Authority) persist(set *claim.PlayerClaims) {
	a.saves.Add(1)
	go func() {
		defer a.saves.Done()
		if err := a.store.SavePlayerClaims(set); err != nil {
			a.log.Warn("save player claims failed",
				zap.String("owner", set.Owner().String()),
				zap.Error(err))
		}
	}()
}

func (a *Authority) writeAudit(e audit.Entry) {
	if a.auditLog == nil {
		return
	}
	if err := a.auditLog.Write(e); err != nil {
		a.log.Warn("audit write failed", zap.Error(err))
	}
}

// HasPermissionAt reports whether the actor may perform an action requiring
// the given level at a world position. Unclaimed land is unrestricted and
// owners hold implicit Build inside their own claims.
func (a *Authority) HasPermissionAt(actor uuid.UUID, world string, x, z float64, required claim.TrustLevel) bool {
	if a.failClosed() {
		return false
	}
	k := claim.KeyAt(world, x, z)
	owner, ok := a.index.Owner(k)
	if !ok {
		return true
	}
	if owner == actor {
		return true
	}
	set, ok := a.setOf(owner)
	if !ok {
		return claim.TrustNone.Satisfies(required)
	}
	return set.HasPermission(actor, required)
}

// IsPvPDisabledAt reports whether PvP is blocked at a world position. No
// claim means PvP is on. Admin claims carry their own flag; player claims
// follow the server-wide policy.
func (a *Authority) IsPvPDisabledAt(world string, x, z float64) bool {
	if a.failClosed() {
		return true
	}
	k := claim.KeyAt(world, x, z)
	owner, ok := a.index.Owner(k)
	if !ok {
		return false
	}
	set, ok := a.setOf(owner)
	if !ok {
		return false
	}
	c, ok := set.ClaimAt(k.World, k.X, k.Z)
	if !ok {
		return false
	}
	if c.Admin {
		return !c.PvPEnabled
	}
	return !a.opts.PvPInPlayerClaims
}

// OwnerAt returns the owning player of the chunk covering a position.
func (a *Authority) OwnerAt(world string, x, z float64) (uuid.UUID, bool) {
	return a.index.Owner(claim.KeyAt(world, x, z))
}

// Info describes a claim for display.
type Info struct {
	Key         claim.ChunkKey
	Owner       uuid.UUID
	OwnerName   string
	Admin       bool
	DisplayName string
	PvPEnabled  bool
	ClaimedAt   int64
}

// ClaimInfo returns display data for the claim covering a position.
func (a *Authority) ClaimInfo(world string, x, z float64) (Info, bool) {
	k := claim.KeyAt(world, x, z)
	owner, ok := a.index.Owner(k)
	if !ok {
		return Info{}, false
	}
	info := Info{Key: k, Owner: owner}
	if set, ok := a.setOf(owner); ok {
		if c, ok := set.ClaimAt(k.World, k.X, k.Z); ok {
			info.Admin = c.Admin
			info.DisplayName = c.DisplayName
			info.PvPEnabled = c.PvPEnabled
			info.ClaimedAt = c.ClaimedAt
		}
	}
	if claim.IsAdminOwner(owner) {
		info.OwnerName = info.DisplayName
		if info.OwnerName == "" {
			info.OwnerName = claim.AdminDisplayName
		}
	} else if name, err := a.store.PlayerName(owner); err == nil {
		info.OwnerName = name
	}
	return info, true
}

// QuotaStatus is a player's current claim allowance for display.
type QuotaStatus struct {
	Current        int
	Max            int
	Unlimited      bool
	HoursUntilNext float64
}

func (a *Authority) QuotaStatus(player uuid.UUID, now time.Time) QuotaStatus {
	current := 0
	if set, ok := a.setOf(player); ok {
		current = set.ClaimCount()
	}
	hours := a.playtime.Hours(player, now)
	max := quota.MaxClaims(a.opts.Limits, hours, a.playtime.Grants(player))
	return QuotaStatus{
		Current:        current,
		Max:            max,
		Unlimited:      quota.IsUnlimited(max),
		HoursUntilNext: quota.HoursUntilNextClaim(a.opts.Limits, hours, current),
	}
}

// ClaimChunk claims the chunk covering a position for the actor. Claiming a
// chunk the actor already owns is a no-op returning the existing record.
func (a *Authority) ClaimChunk(actor uuid.UUID, world string, x, z float64, now time.Time) (claim.Claim, error) {
	if a.failClosed() {
		return claim.Claim{}, claim.ErrStorageUnavailable
	}
	k := claim.KeyAt(world, x, z)
	if owner, ok := a.index.Owner(k); ok {
		if owner != actor {
			return claim.Claim{}, claim.ErrAlreadyClaimed
		}
		set := a.setOrCreate(actor)
		if c, ok := set.ClaimAt(k.World, k.X, k.Z); ok {
			return c, nil
		}
	}

	set := a.setOrCreate(actor)
	hours := a.playtime.Hours(actor, now)
	max := quota.MaxClaims(a.opts.Limits, hours, a.playtime.Grants(actor))
	if !quota.IsUnlimited(max) && set.ClaimCount() >= max {
		return claim.Claim{}, claim.ErrLimitReached
	}
	if err := a.checkBuffer(k, actor); err != nil {
		return claim.Claim{}, err
	}

	if err := a.index.Put(k, actor); err != nil {
		return claim.Claim{}, err
	}
	c := claim.NewClaim(k.World, k.X, k.Z)
	set.AddClaim(c)
	a.persist(set)
	a.writeAudit(audit.Entry{
		Kind: audit.KindClaim, Player: actor.String(),
		World: k.World, ChunkX: k.X, ChunkZ: k.Z,
	})
	return c, nil
}

// checkBuffer rejects a claim when any chunk within the buffer radius is
// owned by someone else. The center chunk is already known to be free or
// owned by the actor.
func (a *Authority) checkBuffer(k claim.ChunkKey, actor uuid.UUID) error {
	buf := a.opts.ClaimBufferSize
	if buf <= 0 {
		return nil
	}
	for dx := -buf; dx <= buf; dx++ {
		for dz := -buf; dz <= buf; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			nk := claim.ChunkKey{World: k.World, X: k.X + dx, Z: k.Z + dz}
			if owner, ok := a.index.Owner(nk); ok && owner != actor {
				return claim.ErrBufferZone
			}
		}
	}
	return nil
}

// UnclaimChunk releases the chunk covering a position. Only the current
// owner may release it.
func (a *Authority) UnclaimChunk(actor uuid.UUID, world string, x, z float64) error {
	if a.failClosed() {
		return claim.ErrStorageUnavailable
	}
	k := claim.KeyAt(world, x, z)
	if err := a.index.Remove(k, actor); err != nil {
		return err
	}
	if set, ok := a.setOf(actor); ok {
		set.RemoveClaim(k.World, k.X, k.Z)
		a.persist(set)
	}
	a.writeAudit(audit.Entry{
		Kind: audit.KindUnclaim, Player: actor.String(),
		World: k.World, ChunkX: k.X, ChunkZ: k.Z,
	})
	return nil
}

// UnclaimAll releases every chunk the actor owns and returns how many.
func (a *Authority) UnclaimAll(actor uuid.UUID) (int, error) {
	if a.failClosed() {
		return 0, claim.ErrStorageUnavailable
	}
	set, ok := a.setOf(actor)
	if !ok {
		return 0, nil
	}
	removed := set.RemoveAll()
	for _, c := range removed {
		if err := a.index.Remove(c.Key(), actor); err != nil {
			a.log.Warn("index row missing during unclaim-all",
				zap.String("chunk", c.Key().String()))
		}
	}
	if len(removed) > 0 {
		a.persist(set)
		a.writeAudit(audit.Entry{
			Kind: audit.KindUnclaimAll, Player: actor.String(),
			Count: len(removed),
		})
	}
	return len(removed), nil
}

// Trust grants the trusted player a level inside all of the owner's claims.
// Granting TrustNone revokes instead.
func (a *Authority) Trust(owner, trusted uuid.UUID, name string, level claim.TrustLevel) error {
	if a.failClosed() {
		return claim.ErrStorageUnavailable
	}
	if !level.Valid() {
		return claim.ErrInvalidTrustLevel
	}
	set := a.setOrCreate(owner)
	set.SetTrusted(trusted, name, level)
	if name != "" {
		if err := a.store.SetPlayerName(trusted, name); err != nil {
			a.log.Warn("save player name failed", zap.Error(err))
		}
	}
	a.persist(set)
	a.writeAudit(audit.Entry{
		Kind: audit.KindTrust, Player: owner.String(),
		Target: trusted.String(), Level: level.Key(),
	})
	return nil
}

// Untrust revokes a grant and returns the trusted player's stored name.
func (a *Authority) Untrust(owner, trusted uuid.UUID) (string, bool, error) {
	if a.failClosed() {
		return "", false, claim.ErrStorageUnavailable
	}
	set, ok := a.setOf(owner)
	if !ok {
		return "", false, nil
	}
	name, removed := set.RemoveTrusted(trusted)
	if !removed {
		return "", false, nil
	}
	a.persist(set)
	a.writeAudit(audit.Entry{
		Kind: audit.KindUntrust, Player: owner.String(),
		Target: trusted.String(),
	})
	return name, true, nil
}

// Trusted lists the owner's trust grants.
func (a *Authority) Trusted(owner uuid.UUID) map[uuid.UUID]claim.TrustedPlayer {
	set, ok := a.setOf(owner)
	if !ok {
		return nil
	}
	return set.Trusted()
}

// TrustedByName resolves one of the owner's grants by stored player name.
func (a *Authority) TrustedByName(owner uuid.UUID, name string) (uuid.UUID, bool) {
	set, ok := a.setOf(owner)
	if !ok {
		return uuid.UUID{}, false
	}
	return set.TrustedByName(name)
}

// CreateAdminClaim claims a chunk for the server. PvP starts disabled and
// can be toggled per claim with SetAdminPvP.
func (a *Authority) CreateAdminClaim(world string, x, z float64, displayName string) (claim.Claim, error) {
	if a.failClosed() {
		return claim.Claim{}, claim.ErrStorageUnavailable
	}
	k := claim.KeyAt(world, x, z)
	if err := a.index.Put(k, claim.AdminOwnerID); err != nil {
		return claim.Claim{}, err
	}
	set := a.setOrCreate(claim.AdminOwnerID)
	c := claim.NewAdminClaim(k.World, k.X, k.Z, displayName)
	set.AddClaim(c)
	a.persist(set)
	a.writeAudit(audit.Entry{
		Kind: audit.KindClaim, Player: claim.AdminOwnerID.String(),
		World: k.World, ChunkX: k.X, ChunkZ: k.Z,
	})
	return c, nil
}

// SetAdminPvP flips PvP on the admin claim covering a position.
func (a *Authority) SetAdminPvP(world string, x, z float64, enabled bool) error {
	if a.failClosed() {
		return claim.ErrStorageUnavailable
	}
	k := claim.KeyAt(world, x, z)
	owner, ok := a.index.Owner(k)
	if !ok || !claim.IsAdminOwner(owner) {
		return claim.ErrNotOwner
	}
	set := a.setOrCreate(claim.AdminOwnerID)
	if !set.SetPvP(k.World, k.X, k.Z, enabled) {
		return claim.ErrNotOwner
	}
	a.persist(set)
	return nil
}

// PlayerJoined starts the player's playtime session and refreshes the
// stored name used in trust listings.
func (a *Authority) PlayerJoined(id uuid.UUID, name string, now time.Time) {
	a.playtime.Join(id, now)
	if name != "" && a.store != nil {
		if err := a.store.SetPlayerName(id, name); err != nil {
			a.log.Warn("save player name failed", zap.Error(err))
		}
	}
}

// PlayerLeft folds the player's running session into their record.
func (a *Authority) PlayerLeft(id uuid.UUID, now time.Time) {
	a.playtime.Leave(id, now)
}

// Claims returns copies of the actor's claims, oldest first.
func (a *Authority) Claims(owner uuid.UUID) []claim.Claim {
	set, ok := a.setOf(owner)
	if !ok {
		return nil
	}
	return set.Claims()
}

// TotalClaims returns the number of claimed chunks across all owners.
func (a *Authority) TotalClaims() int { return a.index.Len() }

// SnapshotRows flattens every claim set into persistable ownership rows.
func (a *Authority) SnapshotRows() []store.StoredClaim {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var rows []store.StoredClaim
	for owner, set := range a.sets {
		for _, c := range set.Claims() {
			rows = append(rows, store.StoredClaim{Owner: owner, Claim: c})
		}
	}
	return rows
}
