package analysis

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

const (
	defaultWindowSize = 7

	// Percentile bounds for the intensity fallback heuristic.
	fallbackStressedPct    = 30
	fallbackWaterloggedPct = 70

	// Shape of the grid returned when the input cube itself is unusable.
	fallbackGridSize = 10
)

// Classifier turns a SpectralCube into a HealthGrid using a pretrained
// per-patch model, falling back to an intensity-percentile heuristic whenever
// the model path fails. Classify never returns an error.
type Classifier struct {
	registry ModelRegistry
	window   int
}

// NewClassifier builds a classifier around the given registry. window is the
// sliding-window side length; non-positive values select the default and even
// values are bumped to the next odd size.
func NewClassifier(registry ModelRegistry, window int) *Classifier {
	if window <= 0 {
		window = defaultWindowSize
	}
	if window%2 == 0 {
		window++
	}
	return &Classifier{registry: registry, window: window}
}

// Classify produces a per-pixel health grid for the cube. The result always
// has the cube's spatial shape (or the fixed fallback shape when the cube is
// unusable) and is tagged with how it was produced.
func (cl *Classifier) Classify(cube SpectralCube) HealthGrid {
	grid, err := cl.classifyModel(cube)
	if err != nil {
		return cl.fallback(cube)
	}
	grid.Source = GridSourceModel
	return grid
}

// classifyModel is the primary path: normalize, smooth, derive indices, then
// slide the patch window over interior pixels. Border pixels stay Healthy.
func (cl *Classifier) classifyModel(cube SpectralCube) (HealthGrid, error) {
	if !cube.usable() {
		return HealthGrid{}, fmt.Errorf("unusable cube: %dx%dx%d with %d samples", cube.Rows, cube.Cols, cube.Bands, len(cube.Data))
	}
	if !cube.finite() {
		return HealthGrid{}, fmt.Errorf("cube contains non-finite samples")
	}
	if cl.registry == nil {
		return HealthGrid{}, fmt.Errorf("no model registry")
	}

	normalized := cube.normalizeBands().smooth3x3()
	indices := deriveIndexStack(normalized)

	grid := NewHealthGrid(cube.Rows, cube.Cols)
	half := cl.window / 2
	for r := half; r < cube.Rows-half; r++ {
		for c := half; c < cube.Cols-half; c++ {
			label, err := cl.registry.ClassifyPatch(indices.patch(r, c, half))
			if err != nil {
				return HealthGrid{}, fmt.Errorf("patch (%d,%d): %w", r, c, err)
			}
			grid.set(r, c, label)
		}
	}
	return grid, nil
}

// fallback is the intensity-percentile heuristic: pixels below the 30th
// percentile of mean band intensity are Stressed, above the 70th Waterlogged,
// the rest Healthy. It cannot fail. The heuristic works on any cube with a
// coherent shape, even one the model path rejected (fewer than three bands);
// only a cube with no usable extent at all yields the fixed default shape.
func (cl *Classifier) fallback(cube SpectralCube) HealthGrid {
	if cube.Rows <= 0 || cube.Cols <= 0 || cube.Bands <= 0 || len(cube.Data) != cube.Rows*cube.Cols*cube.Bands {
		grid := NewHealthGrid(fallbackGridSize, fallbackGridSize)
		grid.Source = GridSourceFallback
		return grid
	}

	intensity := cube.meanIntensity()
	grid := NewHealthGrid(cube.Rows, cube.Cols)
	grid.Source = GridSourceFallback

	low, errLow := stats.Percentile(intensity, fallbackStressedPct)
	high, errHigh := stats.Percentile(intensity, fallbackWaterloggedPct)
	if errLow != nil || errHigh != nil || low == high {
		// Flat or degenerate intensity distribution: nothing to separate.
		return grid
	}

	for i, v := range intensity {
		switch {
		case v < low:
			grid.Cells[i] = Stressed
		case v > high:
			grid.Cells[i] = Waterlogged
		}
	}
	return grid
}
