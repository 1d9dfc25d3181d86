package evolution

import (
	"math/rand"
	"testing"

	"github.com/annel0/antsim/internal/colony"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolve_KeepsSizeAndElites(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pop := RandomPopulation(rng, 10)
	for i := range pop {
		pop[i].Fitness = float64(i % 4)
	}

	next := Evolve(rng, pop, Params{Size: 10, EliteCount: 2, TournamentSize: 3, MutationRate: 0.15})
	require.Len(t, next, 10)

	ranked := Rank(pop)
	assert.Equal(t, ranked[:2], next[:2])
	for _, ind := range next {
		assert.True(t, ind.DNA.Valid(), "Потомок вне границ: %s", ind.DNA)
	}
	for _, ind := range next[2:] {
		assert.Equal(t, 0.0, ind.Fitness, "Потомки ещё не оценены")
		assert.False(t, ind.Evaluated)
	}
}

func TestRank_IsStable(t *testing.T) {
	a := Individual{DNA: colony.DefaultDNA(), Fitness: 2}
	b := Individual{DNA: colony.DefaultQueenDNA(), Fitness: 2}
	c := Individual{DNA: colony.DNA{ActionInterval: 0.5}, Fitness: 5}

	ranked := Rank([]Individual{a, b, c})
	assert.Equal(t, []Individual{c, a, b}, ranked)
}

func TestEvolve_EmptyPopulationFallsBackToRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	next := Evolve(rng, nil, Params{Size: 4, EliteCount: 2, TournamentSize: 3, MutationRate: 0.15})
	require.Len(t, next, 4)
	for _, ind := range next {
		assert.True(t, ind.DNA.Valid())
		assert.False(t, ind.DNA.IsZero())
	}
}

func TestEvolve_EliteCountLargerThanPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	pop := RandomPopulation(rng, 3)

	next := Evolve(rng, pop, Params{Size: 3, EliteCount: 5, TournamentSize: 3})
	assert.Equal(t, Rank(pop), next)
}

func TestTournament_PrefersFitter(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	pop := []Individual{{Fitness: 1}, {Fitness: 9}, {Fitness: 4}}

	wins := 0
	for i := 0; i < 1000; i++ {
		if Tournament(rng, pop, 3).Fitness == 9 {
			wins++
		}
	}
	// P(лучший попал в турнир из 3 с возвращением) = 1 - (2/3)^3 ≈ 0.70
	assert.InDelta(t, 700, wins, 80)

	assert.Equal(t, 9.0, Tournament(rng, pop[1:2], 3).Fitness)
}

func TestEvolve_IsDeterministic(t *testing.T) {
	run := func() []Individual {
		rng := rand.New(rand.NewSource(77))
		pop := RandomPopulation(rng, 8)
		for i := range pop {
			pop[i].Fitness = float64(rng.Intn(5))
		}
		return Evolve(rng, pop, Params{Size: 8, EliteCount: 2, TournamentSize: 3, MutationRate: 0.5})
	}
	assert.Equal(t, run(), run())
}
