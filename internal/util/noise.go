package util

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// NoiseField детерминированный источник шума и случайных чисел, привязанный к сиду.
// Два поля с одинаковым сидом выдают одинаковые последовательности.
type NoiseField struct {
	seed   int64
	perlin *perlin.Perlin
	rng    *rand.Rand
}

// NewNoiseField создаёт поле шума для указанного сида
func NewNoiseField(seed int64) *NoiseField {
	return &NoiseField{
		seed:   seed,
		perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Seed возвращает сид поля
func (nf *NoiseField) Seed() int64 {
	return nf.seed
}

// Rand возвращает генератор случайных чисел, производный от сида
func (nf *NoiseField) Rand() *rand.Rand {
	return nf.rng
}

// Noise3D возвращает значение шума Перлина для указанных координат (от 0 до 1)
func (nf *NoiseField) Noise3D(x, y, z float64) float64 {
	// Получаем значение шума (примерно от -1 до 1)
	noise := nf.perlin.Noise3D(x, y, z)

	// Преобразуем в диапазон от 0 до 1
	v := (noise + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Height возвращает целочисленную "высоту" шума в точке мира.
// scale растягивает шум, height задаёт амплитуду, power (если не 0) возводит результат в степень.
func (nf *NoiseField) Height(x, y, z int, scale, height, power float64) int {
	v := nf.Noise3D(float64(x)/scale, float64(y)/scale, float64(z)/scale) * height
	if power != 0 {
		v = math.Pow(v, power)
	}
	return int(v)
}
