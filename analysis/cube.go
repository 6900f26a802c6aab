package analysis

import "math"

// SpectralCube is a row-major multi-band reflectance image. Samples are laid
// out pixel-interleaved: Data[(r*Cols+c)*Bands+b]. All bands share the same
// spatial extent; a usable cube carries at least three bands.
type SpectralCube struct {
	Rows  int
	Cols  int
	Bands int
	Data  []float64
}

// NewSpectralCube wraps data in a cube after checking the shape. The data
// slice is not copied; callers must not mutate it afterwards.
func NewSpectralCube(rows, cols, bands int, data []float64) SpectralCube {
	return SpectralCube{Rows: rows, Cols: cols, Bands: bands, Data: data}
}

// At returns the sample at (row, col, band). Bounds are the caller's problem.
func (s SpectralCube) At(r, c, b int) float64 {
	return s.Data[(r*s.Cols+c)*s.Bands+b]
}

func (s SpectralCube) set(r, c, b int, v float64) {
	s.Data[(r*s.Cols+c)*s.Bands+b] = v
}

// usable reports whether the cube satisfies the classifier contract: three or
// more bands, non-empty spatial extent, matching data length.
func (s SpectralCube) usable() bool {
	if s.Rows <= 0 || s.Cols <= 0 || s.Bands < 3 {
		return false
	}
	return len(s.Data) == s.Rows*s.Cols*s.Bands
}

// finite reports whether every sample is a finite number.
func (s SpectralCube) finite() bool {
	for _, v := range s.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// normalizeBands rescales each band independently to [0,1] using the band's
// own min/max. A flat band (max == min) maps to all zeros.
func (s SpectralCube) normalizeBands() SpectralCube {
	out := SpectralCube{Rows: s.Rows, Cols: s.Cols, Bands: s.Bands, Data: make([]float64, len(s.Data))}
	for b := 0; b < s.Bands; b++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				v := s.At(r, c, b)
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
		span := hi - lo
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				if span > 0 {
					out.set(r, c, b, (s.At(r, c, b)-lo)/span)
				} else {
					out.set(r, c, b, 0)
				}
			}
		}
	}
	return out
}

// smooth3x3 applies a per-band 3x3 mean filter to suppress sensor noise.
// Neighborhoods are clipped at the image edges.
func (s SpectralCube) smooth3x3() SpectralCube {
	out := SpectralCube{Rows: s.Rows, Cols: s.Cols, Bands: s.Bands, Data: make([]float64, len(s.Data))}
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			for b := 0; b < s.Bands; b++ {
				sum, n := 0.0, 0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						rr, cc := r+dr, c+dc
						if rr < 0 || rr >= s.Rows || cc < 0 || cc >= s.Cols {
							continue
						}
						sum += s.At(rr, cc, b)
						n++
					}
				}
				out.set(r, c, b, sum/float64(n))
			}
		}
	}
	return out
}

// meanIntensity collapses the cube to one mean-across-bands value per pixel,
// row-major. Non-finite samples count as zero.
func (s SpectralCube) meanIntensity() []float64 {
	out := make([]float64, s.Rows*s.Cols)
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			sum := 0.0
			for b := 0; b < s.Bands; b++ {
				v := s.At(r, c, b)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				sum += v
			}
			out[r*s.Cols+c] = sum / float64(s.Bands)
		}
	}
	return out
}
