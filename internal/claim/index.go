package claim

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

const indexShards = 32

// ChunkClaimIndex is the single source of truth for chunk ownership. It is a
// lock-striped map so permission checks on many worker goroutines never
// contend with each other, and Put performs its existence check and insert
// under one shard lock: two racing claims on the same chunk cannot both win.
type ChunkClaimIndex struct {
	shards [indexShards]indexShard
}

type indexShard struct {
	mu     sync.RWMutex
	owners map[ChunkKey]uuid.UUID
}

func NewChunkClaimIndex() *ChunkClaimIndex {
	ix := &ChunkClaimIndex{}
	for i := range ix.shards {
		ix.shards[i].owners = make(map[ChunkKey]uuid.UUID)
	}
	return ix
}

func (ix *ChunkClaimIndex) shard(k ChunkKey) *indexShard {
	var d xxhash.Digest
	d.Reset()
	_, _ = d.WriteString(k.World)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(int64(k.X)))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(k.Z)))
	_, _ = d.Write(buf[:])
	return &ix.shards[d.Sum64()%indexShards]
}

// Owner returns the owning player of a chunk, if any.
func (ix *ChunkClaimIndex) Owner(k ChunkKey) (uuid.UUID, bool) {
	s := ix.shard(k)
	s.mu.RLock()
	owner, ok := s.owners[k]
	s.mu.RUnlock()
	return owner, ok
}

// Put records ownership of a chunk. It fails with ErrAlreadyClaimed if a
// different owner holds it and succeeds idempotently for the same owner.
func (ix *ChunkClaimIndex) Put(k ChunkKey, owner uuid.UUID) error {
	s := ix.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.owners[k]; ok {
		if existing == owner {
			return nil
		}
		return ErrAlreadyClaimed
	}
	s.owners[k] = owner
	return nil
}

// Remove releases a chunk. It fails with ErrNotOwner unless expectedOwner
// currently holds it.
func (ix *ChunkClaimIndex) Remove(k ChunkKey, expectedOwner uuid.UUID) error {
	s := ix.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.owners[k]
	if !ok || existing != expectedOwner {
		return ErrNotOwner
	}
	delete(s.owners, k)
	return nil
}

// Len returns the total number of claimed chunks.
func (ix *ChunkClaimIndex) Len() int {
	n := 0
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.RLock()
		n += len(s.owners)
		s.mu.RUnlock()
	}
	return n
}

// IndexEntry is one ownership row, used for snapshots.
type IndexEntry struct {
	Key   ChunkKey
	Owner uuid.UUID
}

// Entries returns a point-in-time copy of the whole index.
func (ix *ChunkClaimIndex) Entries() []IndexEntry {
	out := make([]IndexEntry, 0, ix.Len())
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.RLock()
		for k, owner := range s.owners {
			out = append(out, IndexEntry{Key: k, Owner: owner})
		}
		s.mu.RUnlock()
	}
	return out
}
