package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Feature indices within a SensorSample. The order is fixed and is part of
// the model contract: [temperature, humidity, soil_moisture].
const (
	FeatTemperature = iota
	FeatHumidity
	FeatSoilMoisture
	featureCount
)

// SensorSample is one row of a time-ordered sensor history, most-recent-last.
type SensorSample struct {
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soil_moisture"`
	Timestamp    time.Time `json:"timestamp,omitempty"` // zero when unknown
}

func (s SensorSample) feature(f int) float64 {
	switch f {
	case FeatTemperature:
		return s.Temperature
	case FeatHumidity:
		return s.Humidity
	default:
		return s.SoilMoisture
	}
}

// ForecastSource tags whether a record came from the sequence model or the
// trend-extrapolation fallback.
type ForecastSource string

const (
	ForecastSourceModel    ForecastSource = "model"
	ForecastSourceFallback ForecastSource = "fallback"
)

// ForecastRecord is the short-horizon prediction of sensor state. Immutable
// once produced; all predicted values are finite.
type ForecastRecord struct {
	Temperature  float64                `json:"temperature"`
	Humidity     float64                `json:"humidity"`
	SoilMoisture float64                `json:"soil_moisture"`
	Trend        [featureCount]float64  `json:"trend"`      // signed units per step, feature order
	Confidence   float64                `json:"confidence"` // in [0.3, 1.0]
	Horizon      string                 `json:"horizon"`    // e.g. "6h"
	Source       ForecastSource         `json:"source"`
}

const (
	defaultHorizonHours  = 6
	defaultSeqWindow     = 20
	fallbackAvgSamples   = 5
	baseConfidence       = 0.8
	saturationPenalty    = 0.15
	shortHistoryPenalty  = 0.1
	fallbackConfidence   = 0.6
	noHistoryConfidence  = 0.3
	maxConfidence        = 1.0
	saturationMargin     = 0.05
	simulationJitterSpan = 0.1
)

// Forecaster predicts near-term sensor state from a rolling telemetry window.
// Forecast never returns an error: model failures degrade to a trend
// extrapolation with reduced confidence.
type Forecaster struct {
	registry ModelRegistry
	window   int
	rng      *rand.Rand // nil outside simulation mode
}

// NewForecaster builds a forecaster around the given registry. window is the
// model input length in samples; non-positive selects the default.
func NewForecaster(registry ModelRegistry, window int) *Forecaster {
	if window <= 0 {
		window = defaultSeqWindow
	}
	return &Forecaster{registry: registry, window: window}
}

// EnableSimulationJitter adds small bounded noise to reported confidence so
// demo feeds do not show static numbers. Production confidence paths stay
// deterministic; never enable this outside simulation.
func (f *Forecaster) EnableSimulationJitter(seed int64) {
	f.rng = rand.New(rand.NewSource(seed))
}

// Forecast produces a ForecastRecord for the given history and horizon.
// horizonHours defaults to 6 when non-positive.
func (f *Forecaster) Forecast(history []SensorSample, horizonHours int) ForecastRecord {
	if horizonHours <= 0 {
		horizonHours = defaultHorizonHours
	}
	horizon := fmt.Sprintf("%dh", horizonHours)

	rec, err := f.forecastModel(history, horizon)
	if err != nil {
		return f.fallback(history, horizon)
	}
	return rec
}

func (f *Forecaster) forecastModel(history []SensorSample, horizon string) (ForecastRecord, error) {
	if len(history) == 0 {
		return ForecastRecord{}, fmt.Errorf("empty history")
	}
	if f.registry == nil {
		return ForecastRecord{}, fmt.Errorf("no model registry")
	}

	features := toFeatureMatrix(history)
	scales := fitScales(features)
	window := recentWindow(scales.normalize(features), f.window)

	preds, err := f.registry.PredictSequence(window)
	if err != nil {
		return ForecastRecord{}, fmt.Errorf("sequence model: %w", err)
	}
	if len(preds) != featureCount {
		return ForecastRecord{}, fmt.Errorf("sequence model returned %d values, want %d", len(preds), featureCount)
	}
	for _, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return ForecastRecord{}, fmt.Errorf("sequence model returned non-finite prediction")
		}
	}

	rec := ForecastRecord{
		Temperature:  scales.denormalize(FeatTemperature, preds[FeatTemperature]),
		Humidity:     scales.denormalize(FeatHumidity, preds[FeatHumidity]),
		SoilMoisture: scales.denormalize(FeatSoilMoisture, preds[FeatSoilMoisture]),
		Trend:        computeTrend(features),
		Confidence:   f.confidence(preds, len(history)),
		Horizon:      horizon,
		Source:       ForecastSourceModel,
	}
	return rec, nil
}

// fallback projects a short moving average along the recent linear trend.
// With no history at all it reports zeros at the floor confidence.
func (f *Forecaster) fallback(history []SensorSample, horizon string) ForecastRecord {
	rec := ForecastRecord{Horizon: horizon, Source: ForecastSourceFallback, Confidence: noHistoryConfidence}
	if len(history) == 0 {
		return rec
	}

	features := toFeatureMatrix(history)
	preds := [featureCount]float64{}
	trend := [featureCount]float64{}
	for ft := 0; ft < featureCount; ft++ {
		tail := features[ft]
		if len(tail) > fallbackAvgSamples {
			tail = tail[len(tail)-fallbackAvgSamples:]
		}
		avg := 0.0
		for _, v := range tail {
			avg += v
		}
		avg /= float64(len(tail))

		slope := 0.0
		if len(tail) >= 2 {
			xs := make([]float64, len(tail))
			for i := range xs {
				xs[i] = float64(i)
			}
			_, slope = stat.LinearRegression(xs, tail, nil, false)
		}
		// One step past the window end, measured from the window center
		// where the moving average sits.
		preds[ft] = avg + slope*float64(len(tail)+1)/2
		trend[ft] = slope
	}

	rec.Temperature = preds[FeatTemperature]
	rec.Humidity = preds[FeatHumidity]
	rec.SoilMoisture = preds[FeatSoilMoisture]
	rec.Trend = trend
	rec.Confidence = fallbackConfidence
	return rec
}

// confidence starts from the base value, penalizes saturated predictions and
// short histories, optionally jitters in simulation mode, and clamps to the
// contractual [0.3, 1.0] range.
func (f *Forecaster) confidence(preds []float64, historyLen int) float64 {
	conf := baseConfidence
	for _, p := range preds {
		if p < saturationMargin || p > 1-saturationMargin {
			conf -= saturationPenalty
			break
		}
	}
	if historyLen < f.window {
		conf -= shortHistoryPenalty
	}
	if f.rng != nil {
		conf += (f.rng.Float64() - 0.5) * simulationJitterSpan
	}
	return math.Min(maxConfidence, math.Max(noHistoryConfidence, conf))
}

// toFeatureMatrix reorients history into feature-major, time-ascending series
// with non-finite values replaced by zero.
func toFeatureMatrix(history []SensorSample) [featureCount][]float64 {
	var out [featureCount][]float64
	for ft := 0; ft < featureCount; ft++ {
		out[ft] = make([]float64, len(history))
		for i, s := range history {
			v := s.feature(ft)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			out[ft][i] = v
		}
	}
	return out
}

// scaleParams holds per-feature min-max bounds for round-trippable
// normalization.
type scaleParams struct {
	min [featureCount]float64
	max [featureCount]float64
}

func fitScales(features [featureCount][]float64) scaleParams {
	var sp scaleParams
	for ft := 0; ft < featureCount; ft++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range features[ft] {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		sp.min[ft], sp.max[ft] = lo, hi
	}
	return sp
}

// normalize maps each feature into [0,1]. A flat feature maps to 0.5 so the
// round trip through denormalize still recovers the original value.
func (sp scaleParams) normalize(features [featureCount][]float64) [][]float64 {
	out := make([][]float64, featureCount)
	for ft := 0; ft < featureCount; ft++ {
		out[ft] = make([]float64, len(features[ft]))
		for i, v := range features[ft] {
			out[ft][i] = sp.normalizeValue(ft, v)
		}
	}
	return out
}

func (sp scaleParams) normalizeValue(ft int, v float64) float64 {
	span := sp.max[ft] - sp.min[ft]
	if span <= 0 {
		return 0.5
	}
	return (v - sp.min[ft]) / span
}

func (sp scaleParams) denormalize(ft int, v float64) float64 {
	span := sp.max[ft] - sp.min[ft]
	if span <= 0 {
		return sp.min[ft]
	}
	return sp.min[ft] + v*span
}

// recentWindow takes the last n samples of each series, padding backward by
// repeating the earliest sample when the history is shorter.
func recentWindow(features [][]float64, n int) [][]float64 {
	out := make([][]float64, len(features))
	for ft, series := range features {
		win := make([]float64, n)
		for i := 0; i < n; i++ {
			src := len(series) - n + i
			if src < 0 {
				src = 0
			}
			win[i] = series[src]
		}
		out[ft] = win
	}
	return out
}

// computeTrend reports, per feature, the signed difference between the last
// two samples, or the half-window mean difference when fewer than three
// samples exist.
func computeTrend(features [featureCount][]float64) [featureCount]float64 {
	var trend [featureCount]float64
	for ft := 0; ft < featureCount; ft++ {
		series := features[ft]
		n := len(series)
		switch {
		case n >= 3:
			trend[ft] = series[n-1] - series[n-2]
		case n == 2:
			trend[ft] = series[1] - series[0]
		default:
			trend[ft] = 0
		}
	}
	return trend
}
