package hyperspace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpace() Space {
	return MustSpace(
		MustReal(1e-4, 1e-1, WithName("learning_rate"), WithPrior(LogUniform)),
		MustInteger(1, 8, WithName("layers"), WithOverlap(0.5)),
		MustCategorical([]string{"relu", "tanh", "sigmoid", "gelu"}, WithName("activation")),
		MustInteger(32, 256, WithName("batch"), Fixed()),
	)
}

func TestNewSpaceInvalid(t *testing.T) {
	_, err := NewSpace()
	assert.ErrorIs(t, err, ErrInvalidDomain)

	_, err = NewSpace(MustReal(0, 1), nil)
	assert.ErrorContains(t, err, "dimension 1 is nil")

	_, err = NewSpace(MustReal(0, 1, WithName("x")), MustInteger(0, 5, WithName("x")))

	var de *InvalidDomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "x", de.Dimension)
	assert.Equal(t, KindInteger, de.Kind)

	// Unnamed dimensions never collide.
	_, err = NewSpace(MustReal(0, 1), MustReal(0, 2))
	assert.NoError(t, err)
}

func TestSpaceAccessors(t *testing.T) {
	s := MustSpace(MustReal(0, 1, WithName("a")), MustInteger(0, 3))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "x1"}, s.Names())
	assert.Equal(t, KindInteger, s.Dimension(1).Kind())
	assert.Equal(t, "Space[Real(low=0, high=1, prior=uniform, transform=identity), Integer(low=0, high=3, transform=identity)]", s.String())

	// The returned slice is a copy.
	dims := s.Dimensions()
	dims[0] = MustReal(5, 6)
	assert.Equal(t, 0.0, s.Dimension(0).(Real).Low())
}

func TestSpaceBisectPreservesShape(t *testing.T) {
	s := testSpace()

	split, err := s.Bisect()
	require.NoError(t, err)

	for _, child := range []Space{split.Low, split.High} {
		require.Equal(t, s.Len(), child.Len())
		assert.Equal(t, s.Names(), child.Names())

		for i := range s.Len() {
			assert.Equal(t, s.Dimension(i).Kind(), child.Dimension(i).Kind())
			assert.Equal(t, s.Dimension(i).Overlap(), child.Dimension(i).Overlap())
		}

		// The fixed dimension is carried unchanged.
		assert.Equal(t, s.Dimension(3), child.Dimension(3))
	}

	// half=2, extra=ceil(0.5)=1.
	assert.Equal(t, []string{"relu", "tanh", "sigmoid"}, split.Low.Dimension(2).(Categorical).Categories())
	assert.Equal(t, []string{"tanh", "sigmoid", "gelu"}, split.High.Dimension(2).(Categorical).Categories())

	// Only the narrow learning rate range is degenerate.
	require.Len(t, split.Warnings, 1)
	assert.Equal(t, "learning_rate", split.Warnings[0].DimensionName())
}

func TestSpaceBisectMatchesDimensionBisect(t *testing.T) {
	s := testSpace()

	split, err := s.Bisect()
	require.NoError(t, err)

	for i, d := range s.Dimensions() {
		b := bisect(t, d)

		assert.Equal(t, b.Low, split.Low.Dimension(i))
		assert.Equal(t, b.High, split.High.Dimension(i))
	}
}

func TestSpaceBisectIsOrderIndependent(t *testing.T) {
	a := MustReal(-3, 9, WithName("a"))
	b := MustCategorical([]string{"p", "q", "r"}, WithName("b"))

	ab, err := MustSpace(a, b).Bisect()
	require.NoError(t, err)

	ba, err := MustSpace(b, a).Bisect()
	require.NoError(t, err)

	assert.Equal(t, ab.Low.Dimension(0), ba.Low.Dimension(1))
	assert.Equal(t, ab.Low.Dimension(1), ba.Low.Dimension(0))
	assert.Equal(t, ab.High.Dimension(0), ba.High.Dimension(1))
	assert.Equal(t, ab.High.Dimension(1), ba.High.Dimension(0))
}

func TestSpaceBisectCollectsWarnings(t *testing.T) {
	s := MustSpace(
		MustInteger(0, 1, WithName("flag")),
		MustCategorical([]string{"a", "b", "c"}, WithName("opt"), WithOverlap(0)),
		MustReal(0, 100, WithName("wide")),
	)

	split, err := s.Bisect()
	require.NoError(t, err)

	require.Len(t, split.Warnings, 2)
	assert.Equal(t, "flag", split.Warnings[0].DimensionName())
	assert.IsType(t, &DegenerateIntervalWarning{}, split.Warnings[0])
	assert.Equal(t, "opt", split.Warnings[1].DimensionName())
	assert.IsType(t, &UncoveredCategoryWarning{}, split.Warnings[1])
}

func TestSpaceBisectWithOverlap(t *testing.T) {
	s := MustSpace(
		MustReal(0, 16, WithName("x")),
		MustReal(0, 4, WithName("y"), Fixed(), WithOverlap(0.9)),
	)

	split, err := s.BisectWithOverlap(0)
	require.NoError(t, err)

	x0, x1 := split.Low.Dimension(0).(Real), split.High.Dimension(0).(Real)
	assert.Equal(t, 8.0, x0.High())
	assert.Equal(t, 8.0, x1.Low())

	// Children keep their own overlap; fixed dimensions are untouched.
	assert.Equal(t, DefaultOverlap, x0.Overlap())
	assert.Equal(t, s.Dimension(1), split.High.Dimension(1))

	_, err = s.BisectWithOverlap(1.01)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestSpaceBisectZeroValue(t *testing.T) {
	_, err := Space{}.Bisect()
	assert.ErrorIs(t, err, ErrInvalidDomain)
}
