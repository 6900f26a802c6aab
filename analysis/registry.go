package analysis

import "fmt"

// ModelRegistry supplies the pretrained model artifacts the pipeline calls
// into. Training, file formats and versioning live behind this interface;
// implementations are expected to have the artifacts resident before the
// pipeline runs.
type ModelRegistry interface {
	// ClassifyPatch labels a small multi-channel index patch. patch[ch] is
	// the row-major window of one index channel (see chanNDVI and friends).
	// No calibration is guaranteed on the returned label.
	ClassifyPatch(patch [][]float64) (HealthClass, error)

	// PredictSequence maps a normalized sensor window to one normalized
	// value per feature, the mean expected state over the forecast horizon.
	// window[f] holds one feature's samples, time ascending.
	PredictSequence(window [][]float64) ([]float64, error)
}

// BaselineRegistry is the deterministic stand-in used until trained artifacts
// are deployed: a threshold rule on patch index means and a recency-weighted
// mean over the sequence window. It keeps the pipeline exercisable end to end
// with no model files on disk.
type BaselineRegistry struct{}

// Vigour and water cut-offs for the baseline patch rule. Dense canopy drives
// NDVI up; standing water absorbs NIR and pulls the simple ratio toward 1.
const (
	baselineHealthyNDVI = 0.30
	baselineWaterRatio  = 1.05
)

func (BaselineRegistry) ClassifyPatch(patch [][]float64) (HealthClass, error) {
	if len(patch) != numIndexChannels {
		return Healthy, fmt.Errorf("patch has %d channels, want %d", len(patch), numIndexChannels)
	}
	ndvi, err := sliceMean(patch[chanNDVI])
	if err != nil {
		return Healthy, err
	}
	ratio, err := sliceMean(patch[chanRatio])
	if err != nil {
		return Healthy, err
	}
	switch {
	case ndvi >= baselineHealthyNDVI:
		return Healthy, nil
	case ratio < baselineWaterRatio:
		return Waterlogged, nil
	default:
		return Stressed, nil
	}
}

func (BaselineRegistry) PredictSequence(window [][]float64) ([]float64, error) {
	preds := make([]float64, len(window))
	for f, series := range window {
		if len(series) == 0 {
			return nil, fmt.Errorf("feature %d: empty window", f)
		}
		var sum, wsum float64
		for i, v := range series {
			w := float64(i + 1)
			sum += w * v
			wsum += w
		}
		preds[f] = sum / wsum
	}
	return preds, nil
}

func sliceMean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, fmt.Errorf("empty slice")
	}
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs)), nil
}
