package model

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/smart-sprinkler/internal/sensor"
)

// testModel turns zone i on when sensor i reads below 0.5 (dry soil).
func testModel() *LinearModel {
	m := &LinearModel{Name: "test", Version: "1", Threshold: DefaultThreshold}
	for i := 0; i < sensor.Zones; i++ {
		w := make([]float64, sensor.Zones)
		w[i] = -10
		m.Zones = append(m.Zones, ZoneWeights{Bias: 5, Weights: w})
	}
	return m
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	data, err := yaml.Marshal(testModel())
	require.NoError(t, err)

	m, err := Load(writeFile(t, "model.yaml", data))
	require.NoError(t, err)
	assert.Equal(t, "test", m.Name)
	assert.Len(t, m.Zones, sensor.Zones)

	var in [sensor.Zones]float64
	for i := range in {
		in[i] = 0.9
	}
	in[4] = 0.1
	out, err := m.Predict(in)
	require.NoError(t, err)
	assert.True(t, out[4])
	assert.False(t, out[5])
}

func TestLoadJSON(t *testing.T) {
	src := testModel()
	zones := make([]map[string]any, 0, len(src.Zones))
	for _, z := range src.Zones {
		zones = append(zones, map[string]any{"bias": z.Bias, "weights": z.Weights})
	}
	data, err := json.Marshal(map[string]any{"name": src.Name, "threshold": src.Threshold, "zones": zones})
	require.NoError(t, err)

	m, err := Load(writeFile(t, "model.json", data))
	require.NoError(t, err)
	assert.Len(t, m.Zones, sensor.Zones)
}

func TestLoadCompressed(t *testing.T) {
	data, err := yaml.Marshal(testModel())
	require.NoError(t, err)

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(data, nil)
	require.NoError(t, enc.Close())

	m, err := Load(writeFile(t, "model.yaml.zst", compressed))
	require.NoError(t, err)
	assert.Equal(t, "test", m.Name)
}

func TestLoadDefaultsThreshold(t *testing.T) {
	src := testModel()
	src.Threshold = 0
	data, err := yaml.Marshal(src)
	require.NoError(t, err)

	m, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, m.Threshold)
}

func TestLoadFailuresAreModelUnavailable(t *testing.T) {
	short := testModel()
	short.Zones = short.Zones[:19]
	shortData, err := yaml.Marshal(short)
	require.NoError(t, err)

	narrow := testModel()
	narrow.Zones[3].Weights = narrow.Zones[3].Weights[:5]
	narrowData, err := yaml.Marshal(narrow)
	require.NoError(t, err)

	nanThreshold := testModel()
	nanThreshold.Threshold = math.NaN()
	nanThresholdData, err := yaml.Marshal(nanThreshold)
	require.NoError(t, err)

	infWeight := testModel()
	infWeight.Zones[7].Weights[2] = math.Inf(1)
	infWeightData, err := yaml.Marshal(infWeight)
	require.NoError(t, err)

	nanBias := testModel()
	nanBias.Zones[0].Bias = math.NaN()
	nanBiasData, err := yaml.Marshal(nanBias)
	require.NoError(t, err)

	cases := map[string]string{
		"missing file":     filepath.Join(t.TempDir(), "nope.yaml"),
		"garbage":          writeFile(t, "bad.yaml", []byte("zones: [unterminated")),
		"too few zones":    writeFile(t, "short.yaml", shortData),
		"too few weights":  writeFile(t, "narrow.yaml", narrowData),
		"corrupt zstd":     writeFile(t, "bad.yaml.zst", []byte("not zstd")),
		"nan threshold":    writeFile(t, "nan-threshold.yaml", nanThresholdData),
		"inf weight":       writeFile(t, "inf-weight.yaml", infWeightData),
		"nan bias":         writeFile(t, "nan-bias.yaml", nanBiasData),
		"empty path value": "",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(path)
			assert.ErrorIs(t, err, ErrModelUnavailable)
		})
	}
}
