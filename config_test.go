package hyperspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
name: mnist
tag: baseline
workers: 4
dimensions:
  - name: learning_rate
    kind: real
    low: 0.0001
    high: 0.1
    prior: log-uniform
  - name: layers
    kind: integer
    low: 1
    high: 8
    overlap: 0.5
    transform: normalize
  - name: activation
    kind: categorical
    categories: [relu, tanh, sigmoid]
    weights: [2, 1, 1]
  - name: batch
    kind: integer
    low: 32
    high: 256
    fixed: true
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "mnist", cfg.Name)
	assert.Equal(t, "baseline", cfg.Tag)
	assert.Equal(t, 4, cfg.Workers)
	assert.Nil(t, cfg.Depth)
	require.Len(t, cfg.Dimensions, 4)

	space, err := cfg.Space()
	require.NoError(t, err)

	assert.Equal(t, []string{"learning_rate", "layers", "activation", "batch"}, space.Names())

	lr := space.Dimension(0).(Real)
	assert.Equal(t, LogUniform, lr.Prior())
	assert.Equal(t, DefaultOverlap, lr.Overlap())

	layers := space.Dimension(1).(Integer)
	assert.Equal(t, 0.5, layers.Overlap())
	assert.Equal(t, Normalize, layers.Transform())

	act := space.Dimension(2).(Categorical)
	assert.Equal(t, []float64{2, 1, 1}, act.Weights())
	assert.Equal(t, OneHot, act.Transform())

	assert.True(t, space.Dimension(3).IsFixed())

	depth, err := cfg.PartitionDepth()
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
	assert.Nil(t, cfg.PartitionOptions())
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{"empty", "", "config is empty"},
		{"unknown field", "dimension: []", "field dimension not found"},
		{"bad yaml", "dimensions: [", "decode config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tt.doc))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestConfigSpaceErrors(t *testing.T) {
	low, high, frac := 0.0, 1.5, 0.5

	tests := []struct {
		name string
		dim  DimensionConfig
		err  string
	}{
		{"unknown kind", DimensionConfig{Name: "x", Kind: "complex"}, `dimension 0: x: unknown kind "complex"`},
		{"missing bounds", DimensionConfig{Name: "x", Kind: "real"}, "low and high are required"},
		{"fractional integer", DimensionConfig{Name: "n", Kind: "integer", Low: &low, High: &high}, "must be integers"},
		{"categories on integer", DimensionConfig{Name: "c", Kind: "integer", Low: &low, High: &frac, Categories: []string{"a"}}, "categories do not apply"},
		{"bad prior", DimensionConfig{Name: "x", Kind: "real", Low: &low, High: &high, Prior: "normal"}, `unknown prior "normal"`},
		{"bad transform", DimensionConfig{Name: "x", Kind: "real", Low: &low, High: &high, Transform: "log"}, `unknown transform "log"`},
		{"invalid domain", DimensionConfig{Name: "c", Kind: "categorical"}, "at least one category"},
		{"bounds on categorical", DimensionConfig{Name: "c", Kind: "categorical", Low: &low, High: &high, Categories: []string{"a", "b"}}, "low and high do not apply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Dimensions: []DimensionConfig{tt.dim}}

			_, err := cfg.Space()
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestConfigPartitionDepth(t *testing.T) {
	three, tooDeep := 3, MaxDepth+1

	tests := []struct {
		name    string
		cfg     Config
		want    int
		wantErr bool
	}{
		{"neither", Config{}, 0, false},
		{"depth", Config{Depth: &three}, 3, false},
		{"workers", Config{Workers: 16}, 4, false},
		{"both", Config{Depth: &three, Workers: 8}, 0, true},
		{"odd workers", Config{Workers: 6}, 0, true},
		{"too deep", Config{Depth: &tooDeep}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.PartitionDepth()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPartitionDepth)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigLevelOverlaps(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(`
depth: 2
overlaps: [0, 1]
dimensions:
  - {name: x, kind: real, low: 0, high: 16}
`))
	require.NoError(t, err)

	space, err := cfg.Space()
	require.NoError(t, err)

	depth, err := cfg.PartitionDepth()
	require.NoError(t, err)

	p, err := Partition(space, depth, cfg.PartitionOptions()...)
	require.NoError(t, err)

	assert.Equal(t, 8.0, p.Leaves[1].Dimension(0).(Real).High())
	assert.Equal(t, 8.0, p.Leaves[2].Dimension(0).(Real).Low())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mnist", cfg.Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDimensionConfigOfRoundTrips(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(testConfigYAML))
	require.NoError(t, err)

	space, err := cfg.Space()
	require.NoError(t, err)

	for i, d := range space.Dimensions() {
		dc := DimensionConfigOf(d)

		back, err := dc.Dimension()
		require.NoError(t, err, "dimension %d", i)
		assert.Equal(t, d, back)
	}
}
