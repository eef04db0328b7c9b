package hyperspace

import (
	"fmt"
	"math"
	"math/rand"
)

// encoder maps points of a space into the surrogate model's input vectors
// according to each dimension's transform and prior.
type encoder struct {
	space Space
	width int
}

func newEncoder(space Space) encoder {
	e := encoder{space: space}
	for _, d := range space.dims {
		e.width += encodedWidth(d)
	}

	return e
}

func encodedWidth(d Dimension) int {
	if c, ok := d.(Categorical); ok && c.transform == OneHot {
		return c.Len()
	}

	return 1
}

// Encode converts p into a vector of e.width floats.
func (e encoder) Encode(p Point) ([]float64, error) {
	if len(p) != len(e.space.dims) {
		return nil, fmt.Errorf("point has %d values for %d dimensions", len(p), len(e.space.dims))
	}

	out := make([]float64, 0, e.width)

	for i, d := range e.space.dims {
		switch v := d.(type) {
		case Real:
			x, ok := p[i].(float64)
			if !ok {
				return nil, fmt.Errorf("dimension %d: want float64, got %T", i, p[i])
			}

			r := v.Range()
			if v.prior == LogUniform {
				x, r = math.Log10(x), r.Log10()
			}

			out = append(out, scale(x, r, v.transform))
		case Integer:
			x, ok := p[i].(int)
			if !ok {
				return nil, fmt.Errorf("dimension %d: want int, got %T", i, p[i])
			}

			out = append(out, scale(float64(x), v.Range(), v.transform))
		case Categorical:
			s, ok := p[i].(string)
			if !ok {
				return nil, fmt.Errorf("dimension %d: want string, got %T", i, p[i])
			}

			idx := v.Index(s)
			if idx < 0 {
				return nil, fmt.Errorf("dimension %d: unknown category %q", i, s)
			}

			if v.transform == OneHot {
				onehot := make([]float64, v.Len())
				onehot[idx] = 1
				out = append(out, onehot...)

				continue
			}

			out = append(out, float64(idx))
		}
	}

	return out, nil
}

func scale[T int | float64](x float64, r ParameterRange[T], t Transform) float64 {
	if t != Normalize {
		return x
	}

	return r.Normalize(x)
}

// sample draws a random point of space honouring each dimension's prior.
func sample(rng *rand.Rand, space Space) Point {
	p := make(Point, len(space.dims))

	for i, d := range space.dims {
		switch v := d.(type) {
		case Real:
			r := v.Range()
			if v.prior == LogUniform {
				p[i] = math.Min(math.Max(math.Pow(10, r.Log10().Uniform(rng)), r.Min), r.Max)

				continue
			}

			p[i] = r.Uniform(rng)
		case Integer:
			p[i] = v.Range().Min + rng.Intn(v.Size())
		case Categorical:
			p[i] = v.categories[pick(rng, v.Probabilities())]
		}
	}

	return p
}

// pick draws an index from a discrete distribution.
func pick(rng *rand.Rand, probs []float64) int {
	r := rng.Float64()

	for i, p := range probs {
		r -= p
		if r < 0 {
			return i
		}
	}

	return len(probs) - 1
}
