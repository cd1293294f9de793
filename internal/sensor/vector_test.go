package sensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(n int, x float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = x
	}
	return out
}

func TestBuildAcceptsValidVector(t *testing.T) {
	in := make([]float64, Zones)
	for i := range in {
		in[i] = float64(i) / float64(Zones-1)
	}

	v, err := Build(in)
	require.NoError(t, err)

	got := v.Values()
	for i := range in {
		assert.Equal(t, in[i], got[i])
		assert.Equal(t, in[i], v.At(i))
	}
}

func TestBuildAcceptsBounds(t *testing.T) {
	in := uniform(Zones, 0)
	in[Zones-1] = 1

	_, err := Build(in)
	assert.NoError(t, err)
}

func TestBuildRejectsWrongCount(t *testing.T) {
	for _, n := range []int{0, 19, 21} {
		_, err := Build(uniform(n, 0.5))
		assert.ErrorIs(t, err, ErrInvalidSensorCount, "n=%d", n)
	}
}

func TestBuildRejectsOutOfRange(t *testing.T) {
	cases := map[string]float64{
		"above one": 1.5,
		"negative":  -0.01,
		"nan":       math.NaN(),
		"inf":       math.Inf(1),
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			in := uniform(Zones, 0.5)
			in[7] = bad
			_, err := Build(in)
			assert.ErrorIs(t, err, ErrInvalidSensorRange)
		})
	}
}

func TestVectorIsImmutable(t *testing.T) {
	in := uniform(Zones, 0.25)
	v, err := Build(in)
	require.NoError(t, err)

	in[0] = 0.9
	vals := v.Values()
	vals[1] = 0.9

	assert.Equal(t, 0.25, v.At(0))
	assert.Equal(t, 0.25, v.At(1))
}
