package world

import (
	"sort"

	"github.com/annel0/antsim/internal/vec"
)

// ChunkListener получает уведомления о чанках, геометрию которых нужно перестроить.
// Реализуется внешним слоем отображения.
type ChunkListener interface {
	ChunkDirty(chunk vec.Vec3)
}

// ChunkListenerFunc адаптер функции к ChunkListener
type ChunkListenerFunc func(chunk vec.Vec3)

// ChunkDirty вызывает f(chunk)
func (f ChunkListenerFunc) ChunkDirty(chunk vec.Vec3) { f(chunk) }

// dirtyTracker хранит множество "грязных" чанков между сбросами
type dirtyTracker struct {
	chunksX, chunksY, chunksZ int
	chunkDiameter             int
	changes                   map[vec.Vec3]struct{}
	changeCounter             int
}

func newDirtyTracker(chunksX, chunksY, chunksZ, chunkDiameter int) *dirtyTracker {
	return &dirtyTracker{
		chunksX:       chunksX,
		chunksY:       chunksY,
		chunksZ:       chunksZ,
		chunkDiameter: chunkDiameter,
		changes:       make(map[vec.Vec3]struct{}),
	}
}

// chunkOf возвращает координаты чанка, содержащего блок
func (d *dirtyTracker) chunkOf(x, y, z int) vec.Vec3 {
	return vec.Vec3{X: x / d.chunkDiameter, Y: y / d.chunkDiameter, Z: z / d.chunkDiameter}
}

func (d *dirtyTracker) inChunkBounds(c vec.Vec3) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 &&
		c.X < d.chunksX && c.Y < d.chunksY && c.Z < d.chunksZ
}

// markBlock помечает чанк блока и 6 соседних по граням чанков
// (изменённый блок может лежать на границе чанка).
func (d *dirtyTracker) markBlock(x, y, z int) {
	c := d.chunkOf(x, y, z)
	d.mark(c)

	neighbours := [6]vec.Vec3{
		{X: -1}, {X: 1},
		{Y: -1}, {Y: 1},
		{Z: -1}, {Z: 1},
	}
	for _, n := range neighbours {
		d.mark(c.Add(n))
	}
}

func (d *dirtyTracker) mark(c vec.Vec3) {
	if !d.inChunkBounds(c) {
		return
	}
	d.changes[c] = struct{}{}
	d.changeCounter++
}

// markAll помечает все чанки мира (после генерации)
func (d *dirtyTracker) markAll() {
	for x := 0; x < d.chunksX; x++ {
		for y := 0; y < d.chunksY; y++ {
			for z := 0; z < d.chunksZ; z++ {
				d.mark(vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
}

func (d *dirtyTracker) hasChanges() bool {
	return len(d.changes) > 0
}

// drain возвращает грязные чанки в детерминированном порядке и очищает список
func (d *dirtyTracker) drain() []vec.Vec3 {
	if len(d.changes) == 0 {
		return nil
	}

	out := make([]vec.Vec3, 0, len(d.changes))
	for c := range d.changes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})

	d.changes = make(map[vec.Vec3]struct{})
	d.changeCounter = 0
	return out
}
