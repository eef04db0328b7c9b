package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/thalesfsp/hyperspace"
)

// objectives are benchmark functions over any space. Numeric values are
// mapped onto [-1, 1] of the full (unpartitioned) dimension so every leaf
// optimizes the same landscape; categories map by index.
var objectives = map[string]func(x []float64) float64{
	"sphere": func(x []float64) float64 {
		var sum float64
		for _, v := range x {
			sum += v * v
		}

		return sum
	},
	"rastrigin": func(x []float64) float64 {
		// Scale [-1, 1] onto the usual [-5.12, 5.12].
		sum := 10 * float64(len(x))
		for _, v := range x {
			v *= 5.12
			sum += v*v - 10*math.Cos(2*math.Pi*v)
		}

		return sum
	},
}

func objectiveNames() []string {
	names := make([]string, 0, len(objectives))
	for name := range objectives {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// benchmark binds a named objective to the full space.
func benchmark(name string, full hyperspace.Space) (hyperspace.Objective, error) {
	f, ok := objectives[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q, want one of %v", name, objectiveNames())
	}

	return func(ctx context.Context, p hyperspace.Point) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		x, err := unit(full, p)
		if err != nil {
			return 0, err
		}

		return f(x), nil
	}, nil
}

// unit maps p onto [-1, 1] per dimension of full.
func unit(full hyperspace.Space, p hyperspace.Point) ([]float64, error) {
	x := make([]float64, len(p))

	for i, v := range p {
		var lo, hi, val float64

		switch d := full.Dimension(i).(type) {
		case hyperspace.Real:
			lo, hi, val = d.Low(), d.High(), v.(float64)
		case hyperspace.Integer:
			lo, hi, val = float64(d.Low()), float64(d.High()), float64(v.(int))
		case hyperspace.Categorical:
			idx := d.Index(v.(string))
			if idx < 0 {
				return nil, fmt.Errorf("unknown category %q", v)
			}

			lo, hi, val = 0, float64(max(d.Len()-1, 1)), float64(idx)
		}

		x[i] = 2*(val-lo)/(hi-lo) - 1
	}

	return x, nil
}

type bestPoint struct {
	Rank        int            `json:"rank" yaml:"rank"`
	Value       float64        `json:"value" yaml:"value"`
	Point       map[string]any `json:"point" yaml:"point"`
	Evaluations int            `json:"evaluations" yaml:"evaluations"`
	Failures    int            `json:"failures" yaml:"failures"`
}

type optimizeReport struct {
	RunID     string      `json:"run_id" yaml:"run_id"`
	Objective string      `json:"objective" yaml:"objective"`
	Workers   int         `json:"workers" yaml:"workers"`
	Best      *bestPoint  `json:"best" yaml:"best"`
	Ranks     []bestPoint `json:"ranks" yaml:"ranks"`
}

func runOptimize(ctx context.Context, args []string, env Env, stdout io.Writer) error {
	fs := flag.NewFlagSet("optimize", flag.ContinueOnError)

	var c common
	c.register(fs, env)

	defaults := hyperspace.DefaultConfig()

	objective := fs.String("objective", "sphere", fmt.Sprintf("benchmark objective, one of %v", objectiveNames()))
	iterations := fs.Int("iterations", defaults.Iterations, "model-guided iterations per leaf")
	initial := fs.Int("initial", defaults.InitialSamples, "random initial samples per leaf")
	candidates := fs.Int("candidates", defaults.NumCandidates, "candidates scored per iteration")
	seed := fs.Int64("seed", int64(time.Now().Year()), "random seed; leaf i uses seed+i")
	format := fs.String("format", "yaml", "output format: yaml or json")

	if err := fs.Parse(args); err != nil {
		return err
	}

	c.visit(fs)

	cfgPath, err := configArg(fs)
	if err != nil {
		return err
	}

	s, err := prepare(c, cfgPath)
	if err != nil {
		return err
	}

	full, err := s.cfg.Space()
	if err != nil {
		return err
	}

	obj, err := benchmark(*objective, full)
	if err != nil {
		return err
	}

	banner(s, "optimize")

	config := defaults
	config.Iterations = *iterations
	config.InitialSamples = *initial
	config.NumCandidates = *candidates
	config.Seed = *seed
	config.Logger = s.logger
	config.Metrics = s.metrics

	results, err := hyperspace.OptimizeLeaves(ctx, config, s.result.Leaves, obj)
	if err != nil {
		return err
	}

	report := optimizeReport{
		RunID:     s.runID,
		Objective: *objective,
		Workers:   len(results),
		Ranks:     make([]bestPoint, len(results)),
	}

	names := full.Names()

	for i, r := range results {
		point := make(map[string]any, len(names))
		for j, name := range names {
			point[name] = r.Best[j]
		}

		report.Ranks[i] = bestPoint{
			Rank:        r.Rank,
			Value:       r.BestValue,
			Point:       point,
			Evaluations: r.Evaluations,
			Failures:    r.Failures,
		}

		if report.Best == nil || r.BestValue < report.Best.Value {
			report.Best = &report.Ranks[i]
		}
	}

	if err := encode(stdout, *format, report); err != nil {
		return err
	}

	if err := s.flushMetrics(c.metricsFile); err != nil {
		return err
	}

	quitBanner()

	return nil
}
