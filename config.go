package hyperspace

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a resolved search-space document: the dimensions of a run plus
// how many workers (or bisection levels) to partition it for.
//
// Example:
//
//	name: mnist
//	tag: baseline
//	workers: 4
//	dimensions:
//	  - name: learning_rate
//	    kind: real
//	    low: 0.0001
//	    high: 0.1
//	    prior: log-uniform
//	  - name: layers
//	    kind: integer
//	    low: 1
//	    high: 8
//	    overlap: 0.5
//	  - name: activation
//	    kind: categorical
//	    categories: [relu, tanh, sigmoid]
//	    weights: [2, 1, 1]
type Config struct {
	Name string `yaml:"name" json:"name,omitempty"`

	// Tag labels the run. It plays no part in partitioning.
	Tag string `yaml:"tag" json:"tag,omitempty"`

	// Workers is the number of leaves, a power of two. Mutually exclusive
	// with Depth.
	Workers int `yaml:"workers" json:"workers,omitempty"`

	// Depth is the number of bisection levels.
	Depth *int `yaml:"depth" json:"depth,omitempty"`

	// Overlaps optionally overrides every dimension's overlap per level.
	Overlaps []float64 `yaml:"overlaps" json:"overlaps,omitempty"`

	Dimensions []DimensionConfig `yaml:"dimensions" json:"dimensions"`
}

// DimensionConfig describes one dimension in a Config.
type DimensionConfig struct {
	Name string `yaml:"name" json:"name"`

	// Kind is "real", "integer" or "categorical".
	Kind string `yaml:"kind" json:"kind"`

	Low  *float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High *float64 `yaml:"high,omitempty" json:"high,omitempty"`

	Categories []string  `yaml:"categories,omitempty" json:"categories,omitempty"`
	Weights    []float64 `yaml:"weights,omitempty" json:"weights,omitempty"`

	Prior     string   `yaml:"prior,omitempty" json:"prior,omitempty"`
	Transform string   `yaml:"transform,omitempty" json:"transform,omitempty"`
	Overlap   *float64 `yaml:"overlap,omitempty" json:"overlap,omitempty"`
	Fixed     bool     `yaml:"fixed,omitempty" json:"fixed,omitempty"`
}

// ParseConfig decodes a YAML document. Unknown keys are rejected.
func ParseConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}

		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &c, nil
}

// LoadConfig reads and decodes the YAML file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := ParseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Space builds and validates the search space. Errors name the offending
// dimension.
func (c *Config) Space() (Space, error) {
	dims := make([]Dimension, 0, len(c.Dimensions))

	for i, dc := range c.Dimensions {
		d, err := dc.Dimension()
		if err != nil {
			return Space{}, fmt.Errorf("dimension %d: %w", i, err)
		}

		dims = append(dims, d)
	}

	return NewSpace(dims...)
}

// PartitionDepth resolves Workers or Depth into a bisection depth. With
// neither set the depth is zero (a single leaf).
func (c *Config) PartitionDepth() (int, error) {
	switch {
	case c.Depth != nil && c.Workers != 0:
		return 0, &InvalidPartitionDepthError{Depth: *c.Depth, Workers: c.Workers, Reason: "workers and depth are mutually exclusive"}
	case c.Depth != nil:
		if *c.Depth < 0 || *c.Depth > MaxDepth {
			return 0, &InvalidPartitionDepthError{Depth: *c.Depth, Reason: fmt.Sprintf("must be within [0, %d]", MaxDepth)}
		}

		return *c.Depth, nil
	case c.Workers != 0:
		return DepthForWorkers(c.Workers)
	default:
		return 0, nil
	}
}

// PartitionOptions returns the options implied by the document.
func (c *Config) PartitionOptions() []PartitionOption {
	if c.Overlaps == nil {
		return nil
	}

	return []PartitionOption{WithLevelOverlaps(c.Overlaps...)}
}

// Dimension builds the described dimension.
func (dc DimensionConfig) Dimension() (Dimension, error) {
	opts := []Option{WithName(dc.Name)}

	if dc.Overlap != nil {
		opts = append(opts, WithOverlap(*dc.Overlap))
	}

	if dc.Fixed {
		opts = append(opts, Fixed())
	}

	t, ok, err := ParseTransform(dc.Transform)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(dc.Name), err)
	}

	if ok {
		opts = append(opts, WithTransform(t))
	}

	if dc.Prior != "" {
		p, err := ParsePrior(dc.Prior)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(dc.Name), err)
		}

		opts = append(opts, WithPrior(p))
	}

	if dc.Weights != nil {
		opts = append(opts, WithWeights(dc.Weights...))
	}

	switch dc.Kind {
	case "real":
		low, high, err := dc.bounds(KindReal)
		if err != nil {
			return nil, err
		}

		return NewReal(low, high, opts...)
	case "integer":
		low, high, err := dc.bounds(KindInteger)
		if err != nil {
			return nil, err
		}

		if low != float64(int(low)) || high != float64(int(high)) {
			return nil, &InvalidDomainError{Dimension: dc.Name, Kind: KindInteger, Reason: fmt.Sprintf("bounds [%g, %g] must be integers", low, high)}
		}

		return NewInteger(int(low), int(high), opts...)
	case "categorical":
		if dc.Low != nil || dc.High != nil {
			return nil, &InvalidDomainError{Dimension: dc.Name, Kind: KindCategorical, Reason: "low and high do not apply"}
		}

		return NewCategorical(dc.Categories, opts...)
	default:
		return nil, fmt.Errorf("%s: unknown kind %q", displayName(dc.Name), dc.Kind)
	}
}

func (dc DimensionConfig) bounds(kind Kind) (low, high float64, err error) {
	if dc.Low == nil || dc.High == nil {
		return 0, 0, &InvalidDomainError{Dimension: dc.Name, Kind: kind, Reason: "low and high are required"}
	}

	if dc.Categories != nil {
		return 0, 0, &InvalidDomainError{Dimension: dc.Name, Kind: kind, Reason: "categories do not apply"}
	}

	return *dc.Low, *dc.High, nil
}

// DimensionConfigOf describes d as a DimensionConfig. It is used to
// serialize leaf spaces. Degenerate leaves (low == high) serialize but do not
// parse back.
func DimensionConfigOf(d Dimension) DimensionConfig {
	overlap := d.Overlap()
	dc := DimensionConfig{
		Name:    d.Name(),
		Kind:    d.Kind().String(),
		Overlap: &overlap,
		Fixed:   d.IsFixed(),
	}

	switch v := d.(type) {
	case Real:
		low, high := v.low, v.high
		dc.Low, dc.High = &low, &high
		dc.Prior = v.prior.String()
		dc.Transform = v.transform.String()
	case Integer:
		low, high := float64(v.low), float64(v.high)
		dc.Low, dc.High = &low, &high
		dc.Transform = v.transform.String()
	case Categorical:
		dc.Categories = v.Categories()
		dc.Weights = v.Weights()
		dc.Transform = v.transform.String()
	}

	return dc
}
