package claim

import (
	"fmt"
	"math"
)

// ChunkSize is the fixed chunk edge length in blocks.
const ChunkSize = 32

// ChunkCoord converts a continuous world coordinate to a chunk coordinate.
func ChunkCoord(v float64) int {
	return int(math.Floor(v / ChunkSize))
}

// ChunkKey identifies one claimable chunk of one world.
type ChunkKey struct {
	World string
	X     int
	Z     int
}

// KeyAt derives the chunk key for a world position.
func KeyAt(world string, x, z float64) ChunkKey {
	return ChunkKey{World: world, X: ChunkCoord(x), Z: ChunkCoord(z)}
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%s:%d,%d", k.World, k.X, k.Z)
}

// ChunkOrigin returns the minimum world coordinates covered by a chunk.
func ChunkOrigin(chunkX, chunkZ int) (int, int) {
	return chunkX * ChunkSize, chunkZ * ChunkSize
}

// BlockPos is an integer block position inside a world.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p BlockPos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// ChebyshevWithin reports whether q is within distance d of p on every axis.
func (p BlockPos) ChebyshevWithin(q BlockPos, d int) bool {
	dx := p.X - q.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - q.Y
	if dy < 0 {
		dy = -dy
	}
	dz := p.Z - q.Z
	if dz < 0 {
		dz = -dz
	}
	return dx <= d && dy <= d && dz <= d
}
