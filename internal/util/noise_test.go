package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseField_Deterministic(t *testing.T) {
	a := NewNoiseField(1337)
	b := NewNoiseField(1337)

	for x := 0; x < 20; x++ {
		for z := 0; z < 20; z++ {
			assert.Equal(t, a.Height(x, 0, z, 10, 3, 1.2), b.Height(x, 0, z, 10, 3, 1.2))
		}
	}
	assert.Equal(t, a.Rand().Int63(), b.Rand().Int63(), "ГСЧ с одинаковым сидом должны совпадать")
}

func TestNoiseField_Range(t *testing.T) {
	nf := NewNoiseField(7)
	for i := 0; i < 500; i++ {
		v := nf.Noise3D(float64(i)*0.37, float64(i)*0.11, float64(i)*0.53)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNoiseField_HeightBounds(t *testing.T) {
	nf := NewNoiseField(99)
	for x := 0; x < 64; x++ {
		h := nf.Height(x, 100, x*3, 30, 10, 0)
		assert.GreaterOrEqual(t, h, 0)
		assert.LessOrEqual(t, h, 10, "Высота без степени не превышает амплитуду")
	}
}
