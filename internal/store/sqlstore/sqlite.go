// Package sqlstore persists claims, trust grants, player names and playtime
// in SQLite.
package sqlstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps permission-path reads unblocked while saves append.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			world TEXT NOT NULL,
			chunk_x INTEGER NOT NULL,
			chunk_z INTEGER NOT NULL,
			owner TEXT NOT NULL,
			claimed_at INTEGER NOT NULL,
			pvp_enabled INTEGER NOT NULL,
			admin_claim INTEGER NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (world, chunk_x, chunk_z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_claims_owner ON claims(owner);`,
		`CREATE TABLE IF NOT EXISTS trusts (
			owner TEXT NOT NULL,
			trusted TEXT NOT NULL,
			name TEXT NOT NULL,
			level INTEGER NOT NULL,
			PRIMARY KEY (owner, trusted)
		);`,
		`CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS playtime (
			player TEXT PRIMARY KEY,
			seconds REAL NOT NULL,
			bonus_slots INTEGER NOT NULL,
			bonus_max INTEGER NOT NULL,
			unlimited INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) LoadIndexSnapshot() ([]store.StoredClaim, error) {
	rows, err := s.db.Query(`SELECT world, chunk_x, chunk_z, owner, claimed_at, pvp_enabled, admin_claim, display_name FROM claims`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.StoredClaim
	for rows.Next() {
		sc, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanClaim(rows *sql.Rows) (store.StoredClaim, error) {
	var (
		sc       store.StoredClaim
		ownerStr string
		pvp      int
		admin    int
	)
	if err := rows.Scan(&sc.Claim.World, &sc.Claim.ChunkX, &sc.Claim.ChunkZ, &ownerStr,
		&sc.Claim.ClaimedAt, &pvp, &admin, &sc.Claim.DisplayName); err != nil {
		return sc, err
	}
	owner, err := uuid.Parse(ownerStr)
	if err != nil {
		return sc, fmt.Errorf("claims row: bad owner %q: %w", ownerStr, err)
	}
	sc.Owner = owner
	sc.Claim.PvPEnabled = pvp != 0
	sc.Claim.Admin = admin != 0
	return sc, nil
}

func (s *Store) SaveIndexSnapshot(snapshot []store.StoredClaim) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM claims`); err != nil {
		return err
	}
	for _, sc := range snapshot {
		if err := insertClaim(tx, sc.Owner, sc.Claim); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertClaim(tx *sql.Tx, owner uuid.UUID, c claim.Claim) error {
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO claims (world, chunk_x, chunk_z, owner, claimed_at, pvp_enabled, admin_claim, display_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.World, c.ChunkX, c.ChunkZ, owner.String(), c.ClaimedAt, b2i(c.PvPEnabled), b2i(c.Admin), c.DisplayName,
	)
	return err
}

func b2i(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (s *Store) Owners() ([]uuid.UUID, error) {
	rows, err := s.db.Query(`SELECT owner FROM claims UNION SELECT owner FROM trusts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var ownerStr string
		if err := rows.Scan(&ownerStr); err != nil {
			return nil, err
		}
		owner, err := uuid.Parse(ownerStr)
		if err != nil {
			return nil, fmt.Errorf("owners row: bad owner %q: %w", ownerStr, err)
		}
		out = append(out, owner)
	}
	return out, rows.Err()
}

func (s *Store) LoadPlayerClaims(owner uuid.UUID) (*claim.PlayerClaims, error) {
	set := claim.NewPlayerClaims(owner)

	rows, err := s.db.Query(
		`SELECT world, chunk_x, chunk_z, owner, claimed_at, pvp_enabled, admin_claim, display_name FROM claims WHERE owner = ?`,
		owner.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		sc, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		set.AddClaim(sc.Claim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := s.db.Query(`SELECT trusted, name, level FROM trusts WHERE owner = ?`, owner.String())
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var (
			trustedStr string
			name       string
			level      int
		)
		if err := trows.Scan(&trustedStr, &name, &level); err != nil {
			return nil, err
		}
		trusted, err := uuid.Parse(trustedStr)
		if err != nil {
			return nil, fmt.Errorf("trusts row: bad trusted %q: %w", trustedStr, err)
		}
		set.SetTrusted(trusted, name, claim.TrustLevel(level))
	}
	return set, trows.Err()
}

func (s *Store) SavePlayerClaims(set *claim.PlayerClaims) error {
	owner := set.Owner()
	claims := set.Claims()
	trusted := set.Trusted()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM claims WHERE owner = ?`, owner.String()); err != nil {
		return err
	}
	for _, c := range claims {
		if err := insertClaim(tx, owner, c); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM trusts WHERE owner = ?`, owner.String()); err != nil {
		return err
	}
	for id, tp := range trusted {
		if _, err := tx.Exec(
			`INSERT INTO trusts (owner, trusted, name, level) VALUES (?, ?, ?, ?)`,
			owner.String(), id.String(), tp.Name, int(tp.Level),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) PlayerName(id uuid.UUID) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM players WHERE id = ?`, id.String()).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

func (s *Store) SetPlayerName(id uuid.UUID, name string) error {
	_, err := s.db.Exec(
		`INSERT INTO players (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		id.String(), name,
	)
	return err
}

func (s *Store) LoadPlaytime() (map[uuid.UUID]playtime.Record, error) {
	rows, err := s.db.Query(`SELECT player, seconds, bonus_slots, bonus_max, unlimited FROM playtime`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]playtime.Record)
	for rows.Next() {
		var (
			idStr     string
			rec       playtime.Record
			unlimited int
		)
		if err := rows.Scan(&idStr, &rec.Seconds, &rec.BonusSlots, &rec.BonusMax, &unlimited); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("playtime row: bad player %q: %w", idStr, err)
		}
		rec.Unlimited = unlimited != 0
		out[id] = rec
	}
	return out, rows.Err()
}

func (s *Store) SavePlaytime(records map[uuid.UUID]playtime.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, rec := range records {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO playtime (player, seconds, bonus_slots, bonus_max, unlimited) VALUES (?, ?, ?, ?, ?)`,
			id.String(), rec.Seconds, rec.BonusSlots, rec.BonusMax, b2i(rec.Unlimited),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
