package analysis

import "math"

// epsilon stabilizes the index denominators against near-zero reflectance.
const epsilon = 1e-6

// Index channels derived from a SpectralCube. Channel order is fixed and
// forms the patch layout the patch classifier is trained against.
const (
	chanNDVI  = 0 // (nir-red)/(nir+red)
	chanGNDVI = 1 // (nir-green)/(nir+green)
	chanRatio = 2 // nir/red
	numIndexChannels = 3
)

// Approximate band positions as fractions of the band axis. Working with
// proportional offsets instead of fixed indices keeps the derivation valid
// across sensors with different spectral resolution.
const (
	greenBandFrac = 0.2
	redBandFrac   = 0.4
	nirBandFrac   = 0.8
)

// IndexStack holds the derived vegetation-index channels, row-major and
// channel-interleaved: Data[(r*Cols+c)*numIndexChannels+ch]. Values are
// unbounded reals; consumers must not assume [0,1].
type IndexStack struct {
	Rows int
	Cols int
	Data []float64
}

func (x IndexStack) at(r, c, ch int) float64 {
	return x.Data[(r*x.Cols+c)*numIndexChannels+ch]
}

// bandAt maps a fractional position on the band axis to a concrete band.
func bandAt(bands int, frac float64) int {
	b := int(math.Round(frac * float64(bands-1)))
	if b < 0 {
		b = 0
	}
	if b >= bands {
		b = bands - 1
	}
	return b
}

// deriveIndexStack computes the fixed three-channel vegetation index stack
// from a normalized cube. Recomputed on every classification run, never
// cached: the cube is consumed once.
func deriveIndexStack(cube SpectralCube) IndexStack {
	green := bandAt(cube.Bands, greenBandFrac)
	red := bandAt(cube.Bands, redBandFrac)
	nir := bandAt(cube.Bands, nirBandFrac)

	out := IndexStack{Rows: cube.Rows, Cols: cube.Cols, Data: make([]float64, cube.Rows*cube.Cols*numIndexChannels)}
	for r := 0; r < cube.Rows; r++ {
		for c := 0; c < cube.Cols; c++ {
			g := cube.At(r, c, green)
			rd := cube.At(r, c, red)
			n := cube.At(r, c, nir)

			base := (r*cube.Cols + c) * numIndexChannels
			out.Data[base+chanNDVI] = (n - rd) / (n + rd + epsilon)
			out.Data[base+chanGNDVI] = (n - g) / (n + g + epsilon)
			out.Data[base+chanRatio] = n / (rd + epsilon)
		}
	}
	return out
}

// patch extracts the square window of half-width half centered on (r, c),
// one row-major slice per channel. The caller guarantees the window fits.
func (x IndexStack) patch(r, c, half int) [][]float64 {
	side := 2*half + 1
	patch := make([][]float64, numIndexChannels)
	for ch := range patch {
		patch[ch] = make([]float64, 0, side*side)
	}
	for dr := -half; dr <= half; dr++ {
		for dc := -half; dc <= half; dc++ {
			for ch := 0; ch < numIndexChannels; ch++ {
				patch[ch] = append(patch[ch], x.at(r+dr, c+dc, ch))
			}
		}
	}
	return patch
}
