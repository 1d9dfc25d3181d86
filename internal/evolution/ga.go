package evolution

import (
	"math/rand"
	"sort"

	"github.com/annel0/antsim/internal/colony"
)

// Individual ДНК популяции с последней известной оценкой (0, если не оценивалась)
type Individual struct {
	DNA       colony.DNA `json:"dna"`
	Fitness   float64    `json:"fitness"`
	Evaluated bool       `json:"evaluated"`
}

// Params параметры одного шага генетического алгоритма
type Params struct {
	Size           int
	EliteCount     int
	TournamentSize int
	MutationRate   float64
}

// RandomPopulation создаёт популяцию случайных ДНК
func RandomPopulation(rng *rand.Rand, size int) []Individual {
	pop := make([]Individual, size)
	for i := range pop {
		pop[i] = Individual{DNA: colony.RandomDNA(rng)}
	}
	return pop
}

// Rank возвращает копию популяции, устойчиво отсортированную по убыванию оценки
func Rank(pop []Individual) []Individual {
	ranked := make([]Individual, len(pop))
	copy(ranked, pop)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// Evolve строит следующее поколение: элиты копируются без изменений,
// остальные места заполняются потомками турнирных родителей.
func Evolve(rng *rand.Rand, pop []Individual, p Params) []Individual {
	ranked := Rank(pop)

	next := make([]Individual, 0, p.Size)
	for i := 0; i < p.EliteCount && i < len(ranked) && len(next) < p.Size; i++ {
		next = append(next, ranked[i])
	}

	for len(next) < p.Size {
		if len(ranked) == 0 {
			next = append(next, Individual{DNA: colony.RandomDNA(rng)})
			continue
		}
		a := Tournament(rng, ranked, p.TournamentSize)
		b := Tournament(rng, ranked, p.TournamentSize)
		next = append(next, Individual{DNA: colony.Crossover(rng, a.DNA, b.DNA, p.MutationRate)})
	}
	return next
}

// Tournament выбирает лучшего из size случайных участников (с возвращением).
// При равенстве побеждает первый выбранный.
func Tournament(rng *rand.Rand, ranked []Individual, size int) Individual {
	if size < 1 {
		size = 1
	}
	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		c := ranked[rng.Intn(len(ranked))]
		if c.Fitness > best.Fitness {
			best = c
		}
	}
	return best
}
