package analysis

// ProblemZone summarizes one connected group of non-Healthy cells.
type ProblemZone struct {
	// Label is assigned in discovery order: "Zone A", "Zone B", ...
	Label string `json:"label"`
	// PixelCount is the number of cells in the zone.
	PixelCount int `json:"pixelCount"`
	// Dominant is the majority vote of Stressed vs Waterlogged members;
	// a tie goes to Stressed.
	Dominant HealthClass `json:"-"`
	// DominantName mirrors Dominant for JSON consumers.
	DominantName string  `json:"dominant"`
	CentroidRow  float64 `json:"centroidRow"`
	CentroidCol  float64 `json:"centroidCol"`
}

// FindProblemZones labels 4-connected regions of non-Healthy cells.
//
// The scan order is pinned as part of the contract: row-major from the
// top-left corner, rows outer. Zone lettering therefore depends only on the
// grid content, never on map iteration or goroutine scheduling.
func FindProblemZones(grid HealthGrid) []ProblemZone {
	if grid.Rows <= 0 || grid.Cols <= 0 {
		return nil
	}
	visited := make([]bool, len(grid.Cells))
	var zones []ProblemZone

	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			idx := r*grid.Cols + c
			if visited[idx] || grid.Cells[idx] == Healthy {
				continue
			}
			zone := floodFill(grid, visited, r, c)
			zone.Label = "Zone " + zoneLetters(len(zones))
			zones = append(zones, zone)
		}
	}
	return zones
}

// floodFill walks one 4-connected non-Healthy component starting at (r0, c0)
// and accumulates its summary.
func floodFill(grid HealthGrid, visited []bool, r0, c0 int) ProblemZone {
	type cell struct{ r, c int }
	queue := []cell{{r0, c0}}
	visited[r0*grid.Cols+c0] = true

	var count, stressed, waterlogged int
	var rowSum, colSum float64

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		count++
		rowSum += float64(cur.r)
		colSum += float64(cur.c)
		if grid.At(cur.r, cur.c) == Stressed {
			stressed++
		} else {
			waterlogged++
		}

		for _, d := range [4]cell{{cur.r - 1, cur.c}, {cur.r + 1, cur.c}, {cur.r, cur.c - 1}, {cur.r, cur.c + 1}} {
			if d.r < 0 || d.r >= grid.Rows || d.c < 0 || d.c >= grid.Cols {
				continue
			}
			idx := d.r*grid.Cols + d.c
			if visited[idx] || grid.Cells[idx] == Healthy {
				continue
			}
			visited[idx] = true
			queue = append(queue, d)
		}
	}

	dominant := Stressed
	if waterlogged > stressed {
		dominant = Waterlogged
	}
	return ProblemZone{
		PixelCount:   count,
		Dominant:     dominant,
		DominantName: dominant.String(),
		CentroidRow:  rowSum / float64(count),
		CentroidCol:  colSum / float64(count),
	}
}

// zoneLetters maps 0 -> "A", 25 -> "Z", 26 -> "AA", spreadsheet style.
func zoneLetters(i int) string {
	s := ""
	for {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
		if i < 0 {
			return s
		}
	}
}
