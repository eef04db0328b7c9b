package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/thalesfsp/hyperspace"
)

// assignment is the document printed by the partition command: one leaf per
// worker rank, in rank order.
type assignment struct {
	RunID    string   `json:"run_id" yaml:"run_id"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Depth    int      `json:"depth" yaml:"depth"`
	Workers  int      `json:"workers" yaml:"workers"`
	Leaves   []leaf   `json:"leaves" yaml:"leaves"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type leaf struct {
	Rank int `json:"rank" yaml:"rank"`

	// Path lists the branch taken at each level, 0 for low and 1 for high.
	Path string `json:"path" yaml:"path"`

	Dimensions []hyperspace.DimensionConfig `json:"dimensions" yaml:"dimensions"`
}

func newAssignment(s *setup) assignment {
	p := s.result
	doc := assignment{
		RunID:   s.runID,
		Name:    s.cfg.Name,
		Tag:     s.cfg.Tag,
		Depth:   p.Depth,
		Workers: p.Workers(),
		Leaves:  make([]leaf, len(p.Leaves)),
	}

	for rank, space := range p.Leaves {
		dims := make([]hyperspace.DimensionConfig, space.Len())
		for i := range dims {
			dims[i] = hyperspace.DimensionConfigOf(space.Dimension(i))
		}

		doc.Leaves[rank] = leaf{Rank: rank, Path: path(rank, p.Depth), Dimensions: dims}
	}

	for _, w := range p.Warnings {
		doc.Warnings = append(doc.Warnings, w.Error())
	}

	return doc
}

// path renders rank as depth binary digits, most significant first.
func path(rank, depth int) string {
	if depth == 0 {
		return ""
	}

	return fmt.Sprintf("%0*b", depth, rank)
}

func runPartition(args []string, env Env, stdout io.Writer) error {
	fs := flag.NewFlagSet("partition", flag.ContinueOnError)

	var c common
	c.register(fs, env)

	rank := fs.Int("rank", -1, "print only the leaf of this worker rank")
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

	banner(s, "partition")

	doc := newAssignment(s)

	var out any = doc
	if *rank >= 0 {
		if _, err := s.result.Leaf(*rank); err != nil {
			return err
		}

		out = doc.Leaves[*rank]
	}

	if err := encode(stdout, *format, out); err != nil {
		return err
	}

	if err := s.flushMetrics(c.metricsFile); err != nil {
		return err
	}

	quitBanner()

	return nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
