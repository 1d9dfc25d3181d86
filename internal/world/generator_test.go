package world

import (
	"testing"

	"github.com/annel0/antsim/internal/config"
	"github.com/annel0/antsim/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioWorld() config.WorldConfig {
	return config.WorldConfig{
		Seed:                1337,
		Diameter:            16,
		Height:              4,
		ChunkDiameter:       8,
		AcidicRegions:       10,
		AcidicRegionRadius:  5,
		ContainerSpheres:    5,
		ContainerSphereSize: 20,
	}
}

func assertShell(t *testing.T, g *Grid) {
	t.Helper()
	sx, sy, sz := g.Dimensions()
	for x := 0; x < sx; x++ {
		for z := 0; z < sz; z++ {
			for y := 0; y < sy; y++ {
				if x == 0 || z == 0 || y == 0 || x == sx-1 || z == sz-1 {
					if g.Get(x, y, z) != block.Container {
						t.Fatalf("Клетка оболочки (%d,%d,%d) = %s, ожидался Container", x, y, z, g.Get(x, y, z))
					}
				}
			}
		}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	cfg := scenarioWorld()

	a := NewWorldGenerator(cfg).Generate()
	b := NewWorldGenerator(cfg).Generate()

	assert.Equal(t, a.Snapshot(), b.Snapshot(), "Одинаковый сид должен давать одинаковый мир")
}

func TestGenerator_DifferentSeedsDiffer(t *testing.T) {
	cfg := scenarioWorld()
	a := NewWorldGenerator(cfg).Generate()
	cfg.Seed = 4242
	b := NewWorldGenerator(cfg).Generate()

	assert.NotEqual(t, a.Snapshot(), b.Snapshot())
}

func TestGenerator_ScenarioSeed1337(t *testing.T) {
	g := NewWorldGenerator(scenarioWorld()).Generate()

	sx, sy, sz := g.Dimensions()
	require.Equal(t, 128, sx)
	require.Equal(t, 32, sy)
	require.Equal(t, 128, sz)

	assertShell(t, g)

	mulch, stone := 0, 0
	for x := 1; x < sx-1; x++ {
		for z := 1; z < sz-1; z++ {
			for y := 1; y < sy; y++ {
				switch g.Get(x, y, z) {
				case block.Mulch:
					mulch++
				case block.Stone:
					stone++
				}
			}
		}
	}
	assert.Positive(t, mulch, "Внутри мира должна быть мульча")
	assert.Positive(t, stone, "Внутри мира должен быть камень")
}

func TestGenerator_ShellHoldsForManyConfigs(t *testing.T) {
	for seed := int64(0); seed < 6; seed++ {
		cfg := config.WorldConfig{
			Seed:                seed,
			Diameter:            2 + int(seed%3),
			Height:              2,
			ChunkDiameter:       4,
			AcidicRegions:       3,
			AcidicRegionRadius:  2,
			ContainerSpheres:    2,
			ContainerSphereSize: 6,
		}
		assertShell(t, NewWorldGenerator(cfg).Generate())
	}
}

func TestGenerator_MarksAllChunksDirty(t *testing.T) {
	g := NewWorldGenerator(smallWorld()).Generate()
	cx, cy, cz := g.ChunkDimensions()

	assert.Len(t, g.DrainDirty(), cx*cy*cz, "После генерации все чанки требуют построения")
}

func TestGenerator_NoRegionsGivesLayeredColumns(t *testing.T) {
	cfg := smallWorld()
	g := NewWorldGenerator(cfg).Generate()

	// Без областей в каждой внутренней колонке слои идут снизу вверх: камень, трава, мульча, воздух
	order := map[block.ID]int{block.Stone: 0, block.Grass: 1, block.Mulch: 2, block.Air: 3}
	sx, sy, sz := g.Dimensions()
	for x := 1; x < sx-1; x++ {
		for z := 1; z < sz-1; z++ {
			prev := 0
			for y := 1; y < sy; y++ {
				rank, ok := order[g.Get(x, y, z)]
				require.True(t, ok, "Неожиданный блок %s", g.Get(x, y, z))
				assert.GreaterOrEqual(t, rank, prev, "Слои в колонке (%d,%d) перепутаны", x, z)
				prev = rank
			}
		}
	}
}
