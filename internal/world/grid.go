package world

import (
	"sync"

	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/vec"
	"github.com/annel0/antsim/internal/world/block"
)

// Grid плотный трёхмерный массив блоков мира.
//
// Внешняя оболочка (x ∈ {0, max}, z ∈ {0, max}, y = 0) всегда состоит из Container:
// генератор строит её, а Set отказывается её перезаписывать.
// Координаты вне мира читаются как Air и никогда не хранятся.
type Grid struct {
	sizeX, sizeY, sizeZ int
	chunkDiameter       int

	blocks []block.ID

	dirty    *dirtyTracker
	listener ChunkListener

	// Колонки, в которых муравьи выкопали или съели блоки: колонка -> [minY, maxY]
	excavated map[vec.Vec2][2]int

	nestCount int

	log *logging.Logger
	mu  sync.RWMutex
}

// NewGrid создаёт пустой (заполненный воздухом) мир по конфигурации
func NewGrid(cfg config.WorldConfig) *Grid {
	cd := cfg.ChunkDiameter
	sx := cfg.Diameter * cd
	sy := cfg.Height * cd
	sz := cfg.Diameter * cd

	return &Grid{
		sizeX:         sx,
		sizeY:         sy,
		sizeZ:         sz,
		chunkDiameter: cd,
		blocks:        make([]block.ID, sx*sy*sz),
		dirty:         newDirtyTracker(cfg.Diameter, cfg.Height, cfg.Diameter, cd),
		excavated:     make(map[vec.Vec2][2]int),
		log:           logging.GetWorldLogger(),
	}
}

// SetListener подключает получателя уведомлений о грязных чанках
func (g *Grid) SetListener(l ChunkListener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listener = l
}

// Dimensions возвращает размеры мира в блоках
func (g *Grid) Dimensions() (x, y, z int) {
	return g.sizeX, g.sizeY, g.sizeZ
}

// ChunkDimensions возвращает размеры мира в чанках
func (g *Grid) ChunkDimensions() (x, y, z int) {
	return g.dirty.chunksX, g.dirty.chunksY, g.dirty.chunksZ
}

// InBounds проверяет, лежит ли координата внутри мира
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.sizeX && y < g.sizeY && z < g.sizeZ
}

// IsShell проверяет, принадлежит ли клетка внешней оболочке из Container
func (g *Grid) IsShell(x, y, z int) bool {
	return x == 0 || z == 0 || y == 0 || x == g.sizeX-1 || z == g.sizeZ-1
}

func (g *Grid) index(x, y, z int) int {
	return (y*g.sizeZ+z)*g.sizeX + x
}

// get без блокировки; вызывающий держит mu
func (g *Grid) get(x, y, z int) block.ID {
	if !g.InBounds(x, y, z) {
		return block.Air
	}
	return g.blocks[g.index(x, y, z)]
}

// put записывает блок без проверок оболочки и без пометки чанков (используется генератором)
func (g *Grid) put(x, y, z int, id block.ID) {
	g.blocks[g.index(x, y, z)] = id
}

// Get возвращает блок по мировым координатам; вне мира возвращает Air
func (g *Grid) Get(x, y, z int) block.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.get(x, y, z)
}

// GetAt то же, что Get, для вектора
func (g *Grid) GetAt(p vec.Vec3) block.ID {
	return g.Get(p.X, p.Y, p.Z)
}

// Set заменяет блок и помечает чанк и его соседей для перестройки.
// Запись вне мира или в оболочку игнорируется с диагностикой.
func (g *Grid) Set(x, y, z int, id block.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.set(x, y, z, id)
}

// SetAt то же, что Set, для вектора
func (g *Grid) SetAt(p vec.Vec3, id block.ID) {
	g.Set(p.X, p.Y, p.Z, id)
}

func (g *Grid) set(x, y, z int, id block.ID) bool {
	if !g.InBounds(x, y, z) {
		g.log.Warn("Attempted to set a block which didn't exist: (%d,%d,%d) -> %s", x, y, z, id)
		return false
	}
	if g.IsShell(x, y, z) {
		g.log.Warn("Attempted to overwrite container shell at (%d,%d,%d) with %s", x, y, z, id)
		return false
	}
	if !id.IsValid() {
		g.log.Warn("Attempted to set invalid block %d at (%d,%d,%d)", uint8(id), x, y, z)
		return false
	}

	idx := g.index(x, y, z)
	prev := g.blocks[idx]
	g.blocks[idx] = id

	if id == block.Air && prev != block.Air {
		g.recordExcavation(x, y, z)
	}

	g.dirty.markBlock(x, y, z)
	return true
}

func (g *Grid) recordExcavation(x, y, z int) {
	col := vec.Vec2{X: x, Y: z}
	r, ok := g.excavated[col]
	if !ok {
		g.excavated[col] = [2]int{y, y}
		return
	}
	if y < r[0] {
		r[0] = y
	}
	if y > r[1] {
		r[1] = y
	}
	g.excavated[col] = r
}

// SurfaceHeight возвращает верхнюю непустую клетку колонки или 0, если колонка пуста
func (g *Grid) SurfaceHeight(x, z int) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.surfaceHeight(x, z)
}

func (g *Grid) surfaceHeight(x, z int) int {
	for y := g.sizeY - 1; y >= 0; y-- {
		if g.get(x, y, z) != block.Air {
			return y
		}
	}
	return 0
}

// PlaceNest превращает клетку в гнездо и увеличивает счётчик гнёзд.
// Возвращает false для Container, уже существующего Nest и координат вне мира.
// Установка и счётчик меняются под одной блокировкой.
func (g *Grid) PlaceNest(x, y, z int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.InBounds(x, y, z) {
		return false
	}

	switch g.get(x, y, z) {
	case block.Container, block.Nest:
		return false
	case block.Air, block.Stone, block.Grass, block.Mulch, block.Acidic:
	}

	if !g.set(x, y, z, block.Nest) {
		return false
	}
	g.nestCount++
	return true
}

// NestCount возвращает количество гнёзд, построенных с последнего сброса
func (g *Grid) NestCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nestCount
}

// ResetNestCount обнуляет счётчик гнёзд (блоки гнёзд остаются в мире)
func (g *Grid) ResetNestCount() {
	g.mu.Lock()
	g.nestCount = 0
	g.mu.Unlock()
	g.log.Debug("Nest count reset to 0")
}

// RestoreTerrain засыпает камнем выкопанные муравьями полости.
// Для каждой внутренней колонки полость заполняется снизу вверх за один вызов,
// поэтому глубокие шахты восстанавливаются полностью. Возвращает число восстановленных клеток.
func (g *Grid) RestoreTerrain() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	restored := 0
	for col, r := range g.excavated {
		x, z := col.X, col.Y
		if g.IsShell(x, 1, z) {
			continue
		}

		for y := r[0]; y <= r[1]; y++ {
			if y <= 0 || y >= g.sizeY-1 {
				continue
			}
			if g.get(x, y, z) != block.Air {
				continue
			}
			// Полость: воздух над твёрдым блоком (под нижней клеткой может быть и граница)
			below := g.get(x, y-1, z)
			if below == block.Air {
				continue
			}
			g.put(x, y, z, block.Stone)
			g.dirty.markBlock(x, y, z)
			restored++
		}
	}
	g.excavated = make(map[vec.Vec2][2]int)

	g.log.Info("Restored %d dug blocks", restored)
	return restored
}

// RegenerateMulch кладёт до двух слоёв мульчи над верхним твёрдым блоком каждой внутренней колонки.
// Возвращает число добавленных блоков.
func (g *Grid) RegenerateMulch() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := 0
	maxY := g.sizeY - 1
	for x := 1; x < g.sizeX-1; x++ {
		for z := 1; z < g.sizeZ-1; z++ {
			for y := g.sizeY - 2; y >= 1; y-- {
				if !g.get(x, y, z).Ground() {
					continue
				}
				for dy := 1; dy <= 2; dy++ {
					if y+dy <= maxY && g.get(x, y+dy, z) == block.Air {
						g.put(x, y+dy, z, block.Mulch)
						g.dirty.markBlock(x, y+dy, z)
						added++
					}
				}
				break
			}
		}
	}

	g.log.Info("Regenerated %d mulch blocks for new generation", added)
	return added
}

// CountBlocks считает клетки заданного типа
func (g *Grid) CountBlocks(id block.ID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, b := range g.blocks {
		if b == id {
			n++
		}
	}
	return n
}

// Snapshot возвращает копию всех клеток мира
func (g *Grid) Snapshot() []block.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]block.ID, len(g.blocks))
	copy(out, g.blocks)
	return out
}

// HasDirtyChunks возвращает true, если есть неотправленные изменения
func (g *Grid) HasDirtyChunks() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dirty.hasChanges()
}

// DrainDirty возвращает и очищает список грязных чанков
func (g *Grid) DrainDirty() []vec.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty.drain()
}

// FlushDirty отправляет слушателю все грязные чанки. Возвращает их количество.
func (g *Grid) FlushDirty() int {
	g.mu.Lock()
	chunks := g.dirty.drain()
	listener := g.listener
	g.mu.Unlock()

	if listener != nil {
		for _, c := range chunks {
			listener.ChunkDirty(c)
		}
	}
	return len(chunks)
}
