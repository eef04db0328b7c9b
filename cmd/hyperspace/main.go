// Command hyperspace partitions a search space described in a YAML file into
// one overlapping leaf per worker, and can run the bundled optimizer on every
// leaf against a benchmark objective.
//
// Usage:
//
//	hyperspace partition [flags] CONFIG
//	hyperspace optimize [flags] CONFIG
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thalesfsp/hyperspace"
	"github.com/thalesfsp/hyperspace/metrics"
)

const usage = `usage: hyperspace <command> [flags] CONFIG

commands:
  partition   print the leaf space assigned to each worker rank
  optimize    optimize a benchmark objective on every leaf concurrently
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)

		return errors.New("a command is required")
	}

	env := FromEnv()

	switch args[0] {
	case "partition":
		return runPartition(args[1:], env, stdout)
	case "optimize":
		return runOptimize(ctx, args[1:], env, stdout)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)

		return nil
	default:
		fmt.Fprint(os.Stderr, usage)

		return fmt.Errorf("unknown command %q", args[0])
	}
}

// common holds the flags shared by every command.
type common struct {
	workers     int
	depth       int
	tag         string
	logLevel    string
	metricsFile string

	// envWorkers is HYPERSPACE_WORKERS. It applies only when neither the
	// flags nor the config choose the tree size.
	envWorkers int

	// set records the flags given on the command line.
	set map[string]bool
}

func (c *common) register(fs *flag.FlagSet, env Env) {
	c.envWorkers = env.Workers

	fs.IntVar(&c.workers, "workers", 0, "number of workers (power of two); overrides the config (env HYPERSPACE_WORKERS)")
	fs.IntVar(&c.depth, "depth", 0, "number of bisection levels; overrides the config")
	fs.StringVar(&c.tag, "tag", "", "string tag for the run")
	fs.StringVar(&c.logLevel, "log-level", env.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
}

// visit records which flags were set explicitly. Call it after parsing.
func (c *common) visit(fs *flag.FlagSet) {
	c.set = map[string]bool{}

	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })
}

// size applies the -workers and -depth overrides to cfg, falling back to
// HYPERSPACE_WORKERS when nothing chooses the tree size.
func (c common) size(cfg *hyperspace.Config) error {
	switch {
	case c.set["depth"] && c.set["workers"]:
		return errors.New("-workers and -depth are mutually exclusive")
	case c.set["depth"]:
		d := c.depth
		cfg.Depth, cfg.Workers = &d, 0
	case c.set["workers"]:
		cfg.Depth, cfg.Workers = nil, c.workers
	case cfg.Depth == nil && cfg.Workers == 0 && c.envWorkers > 0:
		cfg.Workers = c.envWorkers
	}

	return nil
}

// setup loads the config, applies overrides and partitions the space.
type setup struct {
	cfg      *hyperspace.Config
	runID    string
	logger   *hyperspace.Logger
	registry *prometheus.Registry
	metrics  *metrics.PrometheusCollector
	result   *hyperspace.Partitioning
}

func prepare(c common, path string) (*setup, error) {
	level, err := parseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}

	cfg, err := hyperspace.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if c.tag != "" {
		cfg.Tag = c.tag
	}

	if err := c.size(cfg); err != nil {
		return nil, err
	}

	space, err := cfg.Space()
	if err != nil {
		return nil, err
	}

	depth, err := cfg.PartitionDepth()
	if err != nil {
		return nil, err
	}

	s := &setup{
		cfg:      cfg,
		runID:    uuid.NewString(),
		logger:   hyperspace.NewTextLogger(level),
		registry: prometheus.NewRegistry(),
	}

	s.metrics, err = metrics.NewPrometheusCollector(s.registry)
	if err != nil {
		return nil, err
	}

	opts := append(cfg.PartitionOptions(),
		hyperspace.WithLogger(s.logger),
		hyperspace.WithMetrics(s.metrics),
	)

	s.result, err = hyperspace.Partition(space, depth, opts...)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *setup) flushMetrics(path string) error {
	if path == "" {
		return nil
	}

	return prometheus.WriteToTextfile(path, s.registry)
}

func banner(s *setup, command string) {
	name := s.cfg.Name
	if name == "" {
		name = "hyperspace"
	}

	if s.cfg.Tag != "" {
		fmt.Fprintf(os.Stderr, "Running model %s, run %s (%s) -- command %s\n", name, s.runID, s.cfg.Tag, command)
	} else {
		fmt.Fprintf(os.Stderr, "Running model %s, run %s -- command %s\n", name, s.runID, command)
	}

	fmt.Fprintln(os.Stderr, time.Now().Format("2006/01/02 - 15:04:05"))
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 80))
}

func quitBanner() {
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 80))
	fmt.Fprintln(os.Stderr, "Done.")
	fmt.Fprintln(os.Stderr, time.Now().Format("2006/01/02 - 15:04:05"))
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 80))
}

func configArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one CONFIG argument, got %d", fs.NArg())
	}

	return fs.Arg(0), nil
}
