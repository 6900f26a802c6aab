package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHistory(n int) []SensorSample {
	out := make([]SensorSample, n)
	for i := range out {
		out[i] = SensorSample{
			Temperature:  20 + float64(i)*0.5,
			Humidity:     60 - float64(i)*0.2,
			SoilMoisture: 50 - float64(i),
		}
	}
	return out
}

func TestForecastBoundsAndFiniteness(t *testing.T) {
	f := NewForecaster(BaselineRegistry{}, 0)
	for _, n := range []int{1, 2, 5, 20, 40} {
		rec := f.Forecast(sampleHistory(n), 6)

		assert.GreaterOrEqual(t, rec.Confidence, noHistoryConfidence, "n=%d", n)
		assert.LessOrEqual(t, rec.Confidence, maxConfidence, "n=%d", n)
		for _, v := range []float64{rec.Temperature, rec.Humidity, rec.SoilMoisture} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "n=%d", n)
		}
		assert.Equal(t, "6h", rec.Horizon)
	}
}

func TestForecastDefaultHorizon(t *testing.T) {
	f := NewForecaster(BaselineRegistry{}, 0)
	rec := f.Forecast(sampleHistory(10), 0)
	assert.Equal(t, "6h", rec.Horizon)

	rec = f.Forecast(sampleHistory(10), 12)
	assert.Equal(t, "12h", rec.Horizon)
}

func TestForecastTrendFromLastTwoSamples(t *testing.T) {
	history := sampleHistory(10)
	f := NewForecaster(BaselineRegistry{}, 0)
	rec := f.Forecast(history, 6)

	require.Equal(t, ForecastSourceModel, rec.Source)
	assert.InDelta(t, 0.5, rec.Trend[FeatTemperature], 1e-9)
	assert.InDelta(t, -0.2, rec.Trend[FeatHumidity], 1e-9)
	assert.InDelta(t, -1.0, rec.Trend[FeatSoilMoisture], 1e-9)
}

func TestForecastShortHistoryPenalty(t *testing.T) {
	f := NewForecaster(flatRegistry{}, 20)

	long := f.Forecast(sampleHistory(25), 6)
	short := f.Forecast(sampleHistory(5), 6)

	require.Equal(t, ForecastSourceModel, long.Source)
	require.Equal(t, ForecastSourceModel, short.Source)
	assert.InDelta(t, baseConfidence, long.Confidence, 1e-9)
	assert.InDelta(t, baseConfidence-shortHistoryPenalty, short.Confidence, 1e-9)
}

func TestForecastSaturationPenalty(t *testing.T) {
	f := NewForecaster(saturatedRegistry{}, 20)
	rec := f.Forecast(sampleHistory(25), 6)

	require.Equal(t, ForecastSourceModel, rec.Source)
	assert.InDelta(t, baseConfidence-saturationPenalty, rec.Confidence, 1e-9)
}

func TestForecastNonFiniteInputsAreZeroed(t *testing.T) {
	history := sampleHistory(10)
	history[4].Temperature = math.NaN()
	history[7].SoilMoisture = math.Inf(1)

	f := NewForecaster(BaselineRegistry{}, 0)
	rec := f.Forecast(history, 6)
	for _, v := range []float64{rec.Temperature, rec.Humidity, rec.SoilMoisture} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestForecastFallback(t *testing.T) {
	t.Run("no history at all", func(t *testing.T) {
		f := NewForecaster(BaselineRegistry{}, 0)
		rec := f.Forecast(nil, 6)

		assert.Equal(t, ForecastSourceFallback, rec.Source)
		assert.InDelta(t, noHistoryConfidence, rec.Confidence, 1e-9)
		assert.Zero(t, rec.Temperature)
		assert.Zero(t, rec.SoilMoisture)
	})

	t.Run("model failure projects the linear trend", func(t *testing.T) {
		// Soil moisture 50,48,46,44,42: moving average 46, slope -2/step,
		// projected one step past the window end from its center.
		history := make([]SensorSample, 5)
		for i := range history {
			history[i] = SensorSample{Temperature: 20, Humidity: 60, SoilMoisture: 50 - 2*float64(i)}
		}
		f := NewForecaster(erroringRegistry{}, 0)
		rec := f.Forecast(history, 6)

		require.Equal(t, ForecastSourceFallback, rec.Source)
		assert.InDelta(t, fallbackConfidence, rec.Confidence, 1e-9)
		assert.InDelta(t, 40.0, rec.SoilMoisture, 1e-9)
		assert.InDelta(t, -2.0, rec.Trend[FeatSoilMoisture], 1e-9)
		assert.InDelta(t, 20.0, rec.Temperature, 1e-9)
	})

	t.Run("single sample keeps the value with zero trend", func(t *testing.T) {
		f := NewForecaster(erroringRegistry{}, 0)
		rec := f.Forecast([]SensorSample{{Temperature: 18, Humidity: 55, SoilMoisture: 33}}, 6)

		require.Equal(t, ForecastSourceFallback, rec.Source)
		assert.InDelta(t, 33.0, rec.SoilMoisture, 1e-9)
		assert.Zero(t, rec.Trend[FeatSoilMoisture])
	})
}

func TestScaleParamsRoundTrip(t *testing.T) {
	features := toFeatureMatrix(sampleHistory(12))
	sp := fitScales(features)

	for ft := 0; ft < featureCount; ft++ {
		for _, v := range features[ft] {
			got := sp.denormalize(ft, sp.normalizeValue(ft, v))
			assert.InDelta(t, v, got, 1e-9)
		}
	}
}

func TestScaleParamsFlatFeatureRoundTrip(t *testing.T) {
	history := []SensorSample{
		{Temperature: 21, Humidity: 50, SoilMoisture: 40},
		{Temperature: 21, Humidity: 50, SoilMoisture: 40},
	}
	features := toFeatureMatrix(history)
	sp := fitScales(features)

	for ft := 0; ft < featureCount; ft++ {
		v := features[ft][0]
		assert.InDelta(t, v, sp.denormalize(ft, sp.normalizeValue(ft, v)), 1e-9)
	}
}

func TestSimulationJitterStaysBounded(t *testing.T) {
	f := NewForecaster(BaselineRegistry{}, 0)
	f.EnableSimulationJitter(1)
	for i := 0; i < 50; i++ {
		rec := f.Forecast(sampleHistory(25), 6)
		assert.GreaterOrEqual(t, rec.Confidence, noHistoryConfidence)
		assert.LessOrEqual(t, rec.Confidence, maxConfidence)
	}
}

// flatRegistry returns mid-range predictions so no saturation penalty fires.
type flatRegistry struct{}

func (flatRegistry) ClassifyPatch([][]float64) (HealthClass, error) {
	return Healthy, nil
}

func (flatRegistry) PredictSequence(window [][]float64) ([]float64, error) {
	preds := make([]float64, len(window))
	for i := range preds {
		preds[i] = 0.5
	}
	return preds, nil
}

// saturatedRegistry pins predictions to the top of the normalized range.
type saturatedRegistry struct{}

func (saturatedRegistry) ClassifyPatch([][]float64) (HealthClass, error) {
	return Healthy, nil
}

func (saturatedRegistry) PredictSequence(window [][]float64) ([]float64, error) {
	preds := make([]float64, len(window))
	for i := range preds {
		preds[i] = 0.99
	}
	return preds, nil
}
