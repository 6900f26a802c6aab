package analysis

// HealthClass is the per-pixel crop condition category.
type HealthClass uint8

const (
	Healthy HealthClass = iota
	Stressed
	Waterlogged
)

func (c HealthClass) String() string {
	switch c {
	case Stressed:
		return "stressed"
	case Waterlogged:
		return "waterlogged"
	default:
		return "healthy"
	}
}

// GridSource tags whether a HealthGrid came from the patch model or from the
// intensity-percentile fallback. The fusion engine folds this into its
// confidence reasoning.
type GridSource string

const (
	GridSourceModel    GridSource = "model"
	GridSourceFallback GridSource = "fallback"
)

// HealthGrid is the categorical classification result, row-major, with the
// same spatial shape as the cube it was derived from. Immutable once
// produced.
type HealthGrid struct {
	Rows   int
	Cols   int
	Cells  []HealthClass
	Source GridSource
}

// NewHealthGrid returns an all-Healthy grid of the given shape.
func NewHealthGrid(rows, cols int) HealthGrid {
	return HealthGrid{Rows: rows, Cols: cols, Cells: make([]HealthClass, rows*cols)}
}

// At returns the class at (row, col).
func (g HealthGrid) At(r, c int) HealthClass {
	return g.Cells[r*g.Cols+c]
}

func (g HealthGrid) set(r, c int, v HealthClass) {
	g.Cells[r*g.Cols+c] = v
}

// ClassShares returns the Stressed and Waterlogged percentages of the grid.
// An empty grid counts as fully healthy.
func (g HealthGrid) ClassShares() (stressedPct, waterloggedPct float64) {
	total := len(g.Cells)
	if total == 0 {
		return 0, 0
	}
	var stressed, waterlogged int
	for _, c := range g.Cells {
		switch c {
		case Stressed:
			stressed++
		case Waterlogged:
			waterlogged++
		}
	}
	return 100 * float64(stressed) / float64(total), 100 * float64(waterlogged) / float64(total)
}
