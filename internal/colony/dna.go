package colony

import (
	"fmt"
	"math/rand"
)

// Границы генов ДНК
const (
	MinEatChance      = 0.0
	MaxEatChance      = 1.0
	MinDigChance      = 0.0
	MaxDigChance      = 1.0
	MinActionInterval = 0.1
	MaxActionInterval = 1.0
	MinHealthTransfer = 0.0
	MaxHealthTransfer = 20.0

	// Амплитуды мутаций
	probabilityMutation = 0.2
	intervalMutation    = 0.2
	transferMutation    = 5.0

	// Ограничения ДНК королевы
	queenDigChance    = 0.0
	queenMinEatChance = 0.75
)

// DNA четыре параметра поведения муравья. Значимый тип: копируется при передаче.
type DNA struct {
	EatMulchChance     float64 `json:"eat_mulch_chance"`
	DigChance          float64 `json:"dig_chance"`
	ActionInterval     float64 `json:"action_interval_seconds"`
	HealthTransferRate float64 `json:"health_transfer_per_second"`
}

// DefaultDNA ДНК рабочего муравья по умолчанию
func DefaultDNA() DNA {
	return DNA{
		EatMulchChance:     0.5,
		DigChance:          0.15,
		ActionInterval:     0.25,
		HealthTransferRate: 10,
	}
}

// DefaultQueenDNA ДНК королевы, если эволюционная ДНК не задана
func DefaultQueenDNA() DNA {
	return DNA{
		EatMulchChance:     0.9,
		DigChance:          0,
		ActionInterval:     0.6,
		HealthTransferRate: 10,
	}
}

// RandomDNA равномерно выбирает каждый ген в его допустимом диапазоне
func RandomDNA(rng *rand.Rand) DNA {
	return DNA{
		EatMulchChance:     uniform(rng, MinEatChance, MaxEatChance),
		DigChance:          uniform(rng, MinDigChance, MaxDigChance),
		ActionInterval:     uniform(rng, MinActionInterval, MaxActionInterval),
		HealthTransferRate: uniform(rng, MinHealthTransfer, MaxHealthTransfer),
	}
}

// IsZero сообщает, что ДНК не инициализирована (нулевой интервал действий недопустим)
func (d DNA) IsZero() bool {
	return d.ActionInterval <= 0
}

// Clamp возвращает ДНК, зажатую в допустимые диапазоны
func (d DNA) Clamp() DNA {
	return DNA{
		EatMulchChance:     clampf(d.EatMulchChance, MinEatChance, MaxEatChance),
		DigChance:          clampf(d.DigChance, MinDigChance, MaxDigChance),
		ActionInterval:     clampf(d.ActionInterval, MinActionInterval, MaxActionInterval),
		HealthTransferRate: clampf(d.HealthTransferRate, MinHealthTransfer, MaxHealthTransfer),
	}
}

// Valid проверяет, что все гены лежат в своих диапазонах
func (d DNA) Valid() bool {
	return d == d.Clamp()
}

// ForQueen применяет ограничения королевы: она никогда не копает и ест не реже 0.75
func (d DNA) ForQueen() DNA {
	if d.IsZero() {
		return DefaultQueenDNA()
	}
	d.DigChance = queenDigChance
	if d.EatMulchChance < queenMinEatChance {
		d.EatMulchChance = queenMinEatChance
	}
	return d
}

// Mutate независимо для каждого гена с вероятностью rate добавляет ограниченное возмущение
func (d DNA) Mutate(rng *rand.Rand, rate float64) DNA {
	if rng.Float64() < rate {
		d.EatMulchChance += uniform(rng, -probabilityMutation, probabilityMutation)
	}
	if rng.Float64() < rate {
		d.DigChance += uniform(rng, -probabilityMutation, probabilityMutation)
	}
	if rng.Float64() < rate {
		d.ActionInterval += uniform(rng, -intervalMutation, intervalMutation)
	}
	if rng.Float64() < rate {
		d.HealthTransferRate += uniform(rng, -transferMutation, transferMutation)
	}
	return d.Clamp()
}

// Crossover собирает потомка, беря каждый ген у одного из родителей с равной вероятностью,
// и затем мутирует его.
func Crossover(rng *rand.Rand, a, b DNA, mutationRate float64) DNA {
	pick := func(x, y float64) float64 {
		if rng.Float64() < 0.5 {
			return x
		}
		return y
	}

	child := DNA{
		EatMulchChance:     pick(a.EatMulchChance, b.EatMulchChance),
		DigChance:          pick(a.DigChance, b.DigChance),
		ActionInterval:     pick(a.ActionInterval, b.ActionInterval),
		HealthTransferRate: pick(a.HealthTransferRate, b.HealthTransferRate),
	}
	return child.Mutate(rng, mutationRate)
}

func (d DNA) String() string {
	return fmt.Sprintf("DNA[Eat:%.2f, Dig:%.2f, Move:%.2f, Transfer:%.2f]",
		d.EatMulchChance, d.DigChance, d.ActionInterval, d.HealthTransferRate)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
