package analysis

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradientCube builds a cube whose NIR band rises with the column index so
// the baseline patch rule sees a mix of vigorous and weak canopy.
func gradientCube(rows, cols, bands int) SpectralCube {
	data := make([]float64, rows*cols*bands)
	cube := NewSpectralCube(rows, cols, bands, data)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for b := 0; b < bands; b++ {
				v := 0.2
				if b == bandAt(bands, nirBandFrac) {
					v = float64(c) / float64(cols-1)
				}
				cube.set(r, c, b, v)
			}
		}
	}
	return cube
}

func uniformCube(rows, cols, bands int, v float64) SpectralCube {
	data := make([]float64, rows*cols*bands)
	for i := range data {
		data[i] = v
	}
	return NewSpectralCube(rows, cols, bands, data)
}

func TestClassifyShapeAndValues(t *testing.T) {
	cl := NewClassifier(BaselineRegistry{}, 0)
	cube := gradientCube(14, 16, 5)

	grid := cl.Classify(cube)

	require.Equal(t, 14, grid.Rows)
	require.Equal(t, 16, grid.Cols)
	require.Len(t, grid.Cells, 14*16)
	assert.Equal(t, GridSourceModel, grid.Source)
	for _, c := range grid.Cells {
		assert.Contains(t, []HealthClass{Healthy, Stressed, Waterlogged}, c)
	}
}

func TestClassifyBorderStaysHealthy(t *testing.T) {
	cl := NewClassifier(BaselineRegistry{}, 7)
	grid := cl.Classify(gradientCube(12, 12, 4))

	require.Equal(t, GridSourceModel, grid.Source)
	half := 3
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			if r < half || r >= grid.Rows-half || c < half || c >= grid.Cols-half {
				assert.Equal(t, Healthy, grid.At(r, c), "border pixel (%d,%d)", r, c)
			}
		}
	}
}

func TestClassifyFallbacks(t *testing.T) {
	t.Run("too few bands keeps input shape", func(t *testing.T) {
		cl := NewClassifier(BaselineRegistry{}, 0)
		grid := cl.Classify(uniformCube(6, 8, 2, 0.4))

		assert.Equal(t, GridSourceFallback, grid.Source)
		assert.Equal(t, 6, grid.Rows)
		assert.Equal(t, 8, grid.Cols)
	})

	t.Run("empty cube yields fixed default shape", func(t *testing.T) {
		cl := NewClassifier(BaselineRegistry{}, 0)
		grid := cl.Classify(SpectralCube{})

		assert.Equal(t, GridSourceFallback, grid.Source)
		assert.Equal(t, fallbackGridSize, grid.Rows)
		assert.Equal(t, fallbackGridSize, grid.Cols)
		for _, c := range grid.Cells {
			assert.Equal(t, Healthy, c)
		}
	})

	t.Run("non-finite samples trigger fallback with same shape", func(t *testing.T) {
		cube := gradientCube(10, 10, 4)
		cube.set(3, 3, 1, math.NaN())
		cl := NewClassifier(BaselineRegistry{}, 0)

		grid := cl.Classify(cube)
		assert.Equal(t, GridSourceFallback, grid.Source)
		assert.Equal(t, 10, grid.Rows)
		assert.Equal(t, 10, grid.Cols)
	})

	t.Run("failing model falls back to the percentile heuristic", func(t *testing.T) {
		cl := NewClassifier(erroringRegistry{}, 0)
		grid := cl.Classify(gradientCube(12, 12, 4))
		assert.Equal(t, GridSourceFallback, grid.Source)
	})
}

func TestFallbackHeuristicDeterministic(t *testing.T) {
	// A uniform cube has a flat intensity distribution: nothing to separate,
	// so the heuristic reports all Healthy, run after run.
	cl := NewClassifier(nil, 0)
	for _, v := range []float64{0.05, 0.95} {
		cube := uniformCube(9, 9, 3, v)
		a := cl.Classify(cube)
		b := cl.Classify(cube)
		require.Equal(t, a.Cells, b.Cells)
		assert.Equal(t, GridSourceFallback, a.Source)
		for _, c := range a.Cells {
			assert.Equal(t, Healthy, c)
		}
	}
}

func TestFallbackHeuristicPercentiles(t *testing.T) {
	// Column-ramped intensity: the leftmost ~30% of pixels sit below the 30th
	// percentile and the rightmost above the 70th.
	rows, cols, bands := 10, 10, 3
	data := make([]float64, rows*cols*bands)
	cube := NewSpectralCube(rows, cols, bands, data)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for b := 0; b < bands; b++ {
				cube.set(r, c, b, float64(c))
			}
		}
	}

	cl := NewClassifier(nil, 0)
	grid := cl.Classify(cube)
	require.Equal(t, GridSourceFallback, grid.Source)

	assert.Equal(t, Stressed, grid.At(5, 0))
	assert.Equal(t, Healthy, grid.At(5, 5))
	assert.Equal(t, Waterlogged, grid.At(5, 9))
}

func TestWindowNormalization(t *testing.T) {
	assert.Equal(t, defaultWindowSize, NewClassifier(nil, 0).window)
	assert.Equal(t, 5, NewClassifier(nil, 4).window)
	assert.Equal(t, 9, NewClassifier(nil, 9).window)
}

type erroringRegistry struct{}

func (erroringRegistry) ClassifyPatch([][]float64) (HealthClass, error) {
	return Healthy, fmt.Errorf("artifact missing")
}

func (erroringRegistry) PredictSequence([][]float64) ([]float64, error) {
	return nil, fmt.Errorf("artifact missing")
}
