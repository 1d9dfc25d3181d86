package world

import (
	"math"
	"math/rand"

	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/logging"
	"github.com/annel0/antsim/internal/util"
	"github.com/annel0/antsim/internal/world/block"
)

// Параметры шума для слоёв рельефа: (сдвиг по Y, масштаб, амплитуда, степень).
// Подобраны вручную; изменение даёт странные миры.
type noiseLayer struct {
	offsetY int
	scale   float64
	height  float64
	power   float64
}

var (
	stoneLayerA = noiseLayer{offsetY: 0, scale: 10, height: 3, power: 1.2}
	stoneLayerB = noiseLayer{offsetY: 300, scale: 20, height: 4, power: 0}
	grassLayer  = noiseLayer{offsetY: 100, scale: 30, height: 10, power: 0}
	foodLayer   = noiseLayer{offsetY: 200, scale: 20, height: 5, power: 1.5}
)

// Базовая высота каменного слоя
const stoneBase = 10

// RegionKind тип вырезаемой сферической области
type RegionKind int

const (
	RegionAcidic    RegionKind = iota // кислота поверх воздуха
	RegionContainer                   // препятствие, перезаписывает всё
)

// WorldGenerator генерирует стартовый мир. Результат полностью определяется сидом.
type WorldGenerator struct {
	cfg   config.WorldConfig
	noise *util.NoiseField
	rng   *rand.Rand
	log   *logging.Logger
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(cfg config.WorldConfig) *WorldGenerator {
	noise := util.NewNoiseField(cfg.Seed)
	return &WorldGenerator{
		cfg:   cfg,
		noise: noise,
		rng:   noise.Rand(),
		log:   logging.GetWorldLogger(),
	}
}

// Rand возвращает ГСЧ генератора (продолжение той же последовательности используется при спавне)
func (wg *WorldGenerator) Rand() *rand.Rand {
	return wg.rng
}

// Generate строит рельеф, кислотные области и сферы-препятствия
func (wg *WorldGenerator) Generate() *Grid {
	g := NewGrid(wg.cfg)

	g.mu.Lock()
	wg.generateTerrain(g)
	for i := 0; i < wg.cfg.AcidicRegions; i++ {
		wg.carveRegion(g, RegionAcidic, wg.cfg.AcidicRegionRadius)
	}
	for i := 0; i < wg.cfg.ContainerSpheres; i++ {
		wg.carveRegion(g, RegionContainer, wg.cfg.ContainerSphereSize)
	}
	g.dirty.markAll()
	g.mu.Unlock()

	wg.log.Info("🌍 World generated: seed=%d size=%dx%dx%d acidic=%d spheres=%d",
		wg.cfg.Seed, g.sizeX, g.sizeY, g.sizeZ, wg.cfg.AcidicRegions, wg.cfg.ContainerSpheres)
	return g
}

func (wg *WorldGenerator) layerHeight(l noiseLayer, x, z int) int {
	return wg.noise.Height(x, l.offsetY, z, l.scale, l.height, l.power)
}

// generateTerrain заполняет колонки слоями камень/трава/мульча/воздух и строит оболочку
func (wg *WorldGenerator) generateTerrain(g *Grid) {
	for x := 0; x < g.sizeX; x++ {
		for z := 0; z < g.sizeZ; z++ {
			stoneCeiling := wg.layerHeight(stoneLayerA, x, z) + wg.layerHeight(stoneLayerB, x, z) + stoneBase
			grassHeight := wg.layerHeight(grassLayer, x, z)
			foodHeight := wg.layerHeight(foodLayer, x, z)

			for y := 0; y < g.sizeY; y++ {
				var id block.ID
				switch {
				case g.IsShell(x, y, z):
					id = block.Container
				case y <= stoneCeiling:
					id = block.Stone
				case y <= stoneCeiling+grassHeight:
					id = block.Grass
				case y <= stoneCeiling+grassHeight+foodHeight:
					id = block.Mulch
				default:
					id = block.Air
				}
				g.put(x, y, z, id)
			}
		}
	}
}

// carveRegion рисует сферу радиуса radius вокруг случайной точки.
// Кислота заменяет только воздух, препятствия заменяют всё. Цели зажимаются во внутреннюю область.
func (wg *WorldGenerator) carveRegion(g *Grid, kind RegionKind, radius int) {
	cx := wg.rng.Intn(g.sizeX)
	cz := wg.rng.Intn(g.sizeZ)

	var cy int
	var paint block.ID
	switch kind {
	case RegionAcidic:
		cy = g.surfaceHeight(cx, cz)
		paint = block.Acidic
	case RegionContainer:
		cy = wg.rng.Intn(g.sizeY)
		paint = block.Container
	}

	r := float64(radius)
	for hx := cx - radius; hx <= cx+radius; hx++ {
		for hz := cz - radius; hz <= cz+radius; hz++ {
			for hy := cy - radius; hy <= cy+radius; hy++ {
				dx := float64(cx - hx)
				dy := float64(cy - hy)
				dz := float64(cz - hz)
				if math.Sqrt(dx*dx+dy*dy+dz*dz) > r {
					continue
				}

				tx := clamp(hx, 1, g.sizeX-2)
				ty := clamp(hy, 1, g.sizeY-2)
				tz := clamp(hz, 1, g.sizeZ-2)

				switch kind {
				case RegionAcidic:
					if g.get(tx, ty, tz) == block.Air {
						g.put(tx, ty, tz, paint)
					}
				case RegionContainer:
					g.put(tx, ty, tz, paint)
				}
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
