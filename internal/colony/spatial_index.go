package colony

import (
	"sort"
	"sync"

	"github.com/annel0/antsim/internal/vec"
)

// SpatialIndex пространственный индекс муравьёв: клетка сетки -> множество ID.
// Муравьи всегда стоят в целых клетках, поэтому поиск соседей по клетке - O(1).
type SpatialIndex struct {
	cells    map[vec.Vec3]map[uint64]struct{}
	entities map[uint64]vec.Vec3
	mu       sync.RWMutex
}

// NewSpatialIndex создаёт пустой индекс
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		cells:    make(map[vec.Vec3]map[uint64]struct{}),
		entities: make(map[uint64]vec.Vec3),
	}
}

// Insert добавляет муравья в клетку. Повторная вставка перемещает его.
func (si *SpatialIndex) Insert(id uint64, pos vec.Vec3) {
	si.mu.Lock()
	defer si.mu.Unlock()

	if old, exists := si.entities[id]; exists {
		si.removeFromCell(id, old)
	}
	si.addToCell(id, pos)
}

// Update перемещает муравья в новую клетку
func (si *SpatialIndex) Update(id uint64, pos vec.Vec3) {
	si.mu.Lock()
	defer si.mu.Unlock()

	old, exists := si.entities[id]
	if exists && old == pos {
		return
	}
	if exists {
		si.removeFromCell(id, old)
	}
	si.addToCell(id, pos)
}

// Remove удаляет муравья из индекса
func (si *SpatialIndex) Remove(id uint64) {
	si.mu.Lock()
	defer si.mu.Unlock()

	if pos, exists := si.entities[id]; exists {
		si.removeFromCell(id, pos)
		delete(si.entities, id)
	}
}

// Clear очищает индекс
func (si *SpatialIndex) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()

	si.cells = make(map[vec.Vec3]map[uint64]struct{})
	si.entities = make(map[uint64]vec.Vec3)
}

// At возвращает ID муравьёв в клетке по возрастанию
func (si *SpatialIndex) At(pos vec.Vec3) []uint64 {
	si.mu.RLock()
	defer si.mu.RUnlock()

	cell := si.cells[pos]
	if len(cell) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(cell))
	for id := range cell {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count возвращает число муравьёв в клетке
func (si *SpatialIndex) Count(pos vec.Vec3) int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.cells[pos])
}

// Position возвращает клетку муравья
func (si *SpatialIndex) Position(id uint64) (vec.Vec3, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	pos, ok := si.entities[id]
	return pos, ok
}

// Len возвращает число проиндексированных муравьёв
func (si *SpatialIndex) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.entities)
}

func (si *SpatialIndex) addToCell(id uint64, pos vec.Vec3) {
	cell, ok := si.cells[pos]
	if !ok {
		cell = make(map[uint64]struct{})
		si.cells[pos] = cell
	}
	cell[id] = struct{}{}
	si.entities[id] = pos
}

func (si *SpatialIndex) removeFromCell(id uint64, pos vec.Vec3) {
	if cell, ok := si.cells[pos]; ok {
		delete(cell, id)
		if len(cell) == 0 {
			delete(si.cells, pos)
		}
	}
}
