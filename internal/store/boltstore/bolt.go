// Package boltstore persists claims, trust grants, player names and
// playtime in a single BoltDB file.
package boltstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/store"
)

const (
	bClaims   = "claims"
	bTrusts   = "trusts"
	bPlayers  = "players"
	bPlaytime = "playtime"

	openTimeout = 2 * time.Second
)

type Store struct {
	db *bolt.DB
}

var _ store.Store = (*Store)(nil)

// claimRow is the serialized claim value. The bucket key is the chunk key.
type claimRow struct {
	Owner       string `json:"owner"`
	World       string `json:"world"`
	ChunkX      int    `json:"chunk_x"`
	ChunkZ      int    `json:"chunk_z"`
	ClaimedAt   int64  `json:"claimed_at"`
	PvPEnabled  bool   `json:"pvp_enabled"`
	Admin       bool   `json:"admin_claim,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type trustRow struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bClaims, bTrusts, bPlayers, bPlaytime} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func toRow(owner uuid.UUID, c claim.Claim) claimRow {
	return claimRow{
		Owner:       owner.String(),
		World:       c.World,
		ChunkX:      c.ChunkX,
		ChunkZ:      c.ChunkZ,
		ClaimedAt:   c.ClaimedAt,
		PvPEnabled:  c.PvPEnabled,
		Admin:       c.Admin,
		DisplayName: c.DisplayName,
	}
}

func fromRow(r claimRow) (store.StoredClaim, error) {
	owner, err := uuid.Parse(r.Owner)
	if err != nil {
		return store.StoredClaim{}, err
	}
	return store.StoredClaim{
		Owner: owner,
		Claim: claim.Claim{
			World:       r.World,
			ChunkX:      r.ChunkX,
			ChunkZ:      r.ChunkZ,
			ClaimedAt:   r.ClaimedAt,
			PvPEnabled:  r.PvPEnabled,
			Admin:       r.Admin,
			DisplayName: r.DisplayName,
		},
	}, nil
}

func (s *Store) LoadIndexSnapshot() ([]store.StoredClaim, error) {
	var out []store.StoredClaim
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bClaims)).ForEach(func(_, v []byte) error {
			var r claimRow
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			sc, err := fromRow(r)
			if err != nil {
				return err
			}
			out = append(out, sc)
			return nil
		})
	})
	return out, err
}

func (s *Store) SaveIndexSnapshot(snapshot []store.StoredClaim) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bClaims)); err != nil {
			return err
		}
		b, err := tx.CreateBucket([]byte(bClaims))
		if err != nil {
			return err
		}
		for _, sc := range snapshot {
			val, err := json.Marshal(toRow(sc.Owner, sc.Claim))
			if err != nil {
				return err
			}
			if err := b.Put([]byte(sc.Claim.Key().String()), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func trustKey(owner, trusted uuid.UUID) []byte {
	return []byte(owner.String() + "|" + trusted.String())
}

func (s *Store) Owners() ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bClaims)).ForEach(func(_, v []byte) error {
			var r claimRow
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			owner, err := uuid.Parse(r.Owner)
			if err != nil {
				return err
			}
			seen[owner] = struct{}{}
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket([]byte(bTrusts)).ForEach(func(k, _ []byte) error {
			ownerStr, _, ok := strings.Cut(string(k), "|")
			if !ok {
				return nil
			}
			owner, err := uuid.Parse(ownerStr)
			if err != nil {
				return err
			}
			seen[owner] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) LoadPlayerClaims(owner uuid.UUID) (*claim.PlayerClaims, error) {
	set := claim.NewPlayerClaims(owner)
	ownerStr := owner.String()
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bClaims)).ForEach(func(_, v []byte) error {
			var r claimRow
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Owner != ownerStr {
				return nil
			}
			sc, err := fromRow(r)
			if err != nil {
				return err
			}
			set.AddClaim(sc.Claim)
			return nil
		}); err != nil {
			return err
		}

		prefix := []byte(ownerStr + "|")
		c := tx.Bucket([]byte(bTrusts)).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			trusted, err := uuid.Parse(strings.TrimPrefix(string(k), string(prefix)))
			if err != nil {
				return err
			}
			var r trustRow
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			set.SetTrusted(trusted, r.Name, claim.TrustLevel(r.Level))
		}
		return nil
	})
	return set, err
}

func (s *Store) SavePlayerClaims(set *claim.PlayerClaims) error {
	owner := set.Owner()
	ownerStr := owner.String()
	claims := set.Claims()
	trusted := set.Trusted()

	return s.db.Update(func(tx *bolt.Tx) error {
		cb := tx.Bucket([]byte(bClaims))

		// Drop the owner's stale claim rows before rewriting.
		var stale [][]byte
		if err := cb.ForEach(func(k, v []byte) error {
			var r claimRow
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Owner == ownerStr {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := cb.Delete(k); err != nil {
				return err
			}
		}
		for _, c := range claims {
			val, err := json.Marshal(toRow(owner, c))
			if err != nil {
				return err
			}
			if err := cb.Put([]byte(c.Key().String()), val); err != nil {
				return err
			}
		}

		tb := tx.Bucket([]byte(bTrusts))
		prefix := []byte(ownerStr + "|")
		cur := tb.Cursor()
		var staleTrusts [][]byte
		for k, _ := cur.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = cur.Next() {
			staleTrusts = append(staleTrusts, append([]byte(nil), k...))
		}
		for _, k := range staleTrusts {
			if err := tb.Delete(k); err != nil {
				return err
			}
		}
		for id, tp := range trusted {
			val, err := json.Marshal(trustRow{Name: tp.Name, Level: int(tp.Level)})
			if err != nil {
				return err
			}
			if err := tb.Put(trustKey(owner, id), val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) PlayerName(id uuid.UUID) (string, error) {
	var name string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bPlayers)).Get([]byte(id.String())); v != nil {
			name = string(v)
		}
		return nil
	})
	return name, err
}

func (s *Store) SetPlayerName(id uuid.UUID, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bPlayers)).Put([]byte(id.String()), []byte(name))
	})
}

func (s *Store) LoadPlaytime() (map[uuid.UUID]playtime.Record, error) {
	out := make(map[uuid.UUID]playtime.Record)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bPlaytime)).ForEach(func(k, v []byte) error {
			id, err := uuid.Parse(string(k))
			if err != nil {
				return err
			}
			var rec playtime.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out[id] = rec
			return nil
		})
	})
	return out, err
}

func (s *Store) SavePlaytime(records map[uuid.UUID]playtime.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bPlaytime))
		for id, rec := range records {
			val, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id.String()), val); err != nil {
				return err
			}
		}
		return nil
	})
}
