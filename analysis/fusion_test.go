package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func modelGrid(rows, cols int) HealthGrid {
	g := NewHealthGrid(rows, cols)
	g.Source = GridSourceModel
	return g
}

func calmForecast() ForecastRecord {
	return ForecastRecord{
		Temperature:  22,
		Humidity:     60,
		SoilMoisture: 50,
		Confidence:   0.8,
		Horizon:      "6h",
		Source:       ForecastSourceModel,
	}
}

func findingsContain(findings []string, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}

func TestFuseNormalConditions(t *testing.T) {
	alert := Fuse(modelGrid(10, 10), calmForecast(), CurrentStats{SoilMoisture: ptr(50)})

	assert.Equal(t, PriorityInfo, alert.Priority)
	require.Len(t, alert.Findings, 1)
	assert.Contains(t, alert.Findings[0], "normal")
	assert.Empty(t, alert.Recommendations)
	assert.Empty(t, alert.Caveat)
	assert.Zero(t, alert.Severity)
	assert.False(t, alert.GeneratedAt.IsZero())
}

func TestFuseDeterministic(t *testing.T) {
	grid := modelGrid(10, 10)
	for i := 0; i < 40; i++ {
		grid.Cells[i] = Stressed
	}
	forecast := calmForecast()
	forecast.SoilMoisture = 20
	forecast.Trend[FeatSoilMoisture] = -1.5
	stats := CurrentStats{SoilMoisture: ptr(40)}

	a := Fuse(grid, forecast, stats)
	b := Fuse(grid, forecast, stats)

	a.GeneratedAt = b.GeneratedAt
	assert.Equal(t, a, b)
}

func TestFuseCriticalMoistureScenario(t *testing.T) {
	// 40% stressed, forecast soil moisture 20 with trend -1.5, current 40:
	// CRITICAL with stress %, critical moisture and a ~6.7 day estimate.
	grid := modelGrid(10, 10)
	for i := 0; i < 40; i++ {
		grid.Cells[i] = Stressed
	}
	forecast := calmForecast()
	forecast.SoilMoisture = 20
	forecast.Trend[FeatSoilMoisture] = -1.5

	alert := Fuse(grid, forecast, CurrentStats{SoilMoisture: ptr(40)})

	assert.Equal(t, PriorityCritical, alert.Priority)
	assert.True(t, findingsContain(alert.Findings, "40.0%"), "stress percentage finding")
	assert.True(t, findingsContain(alert.Findings, "critical threshold"), "critical moisture finding")
	assert.True(t, findingsContain(alert.Findings, "6.7 days"), "days-to-critical estimate")
	assert.True(t, findingsContain(alert.Findings, "Combined risk"), "cross-source finding")
	// Per-zone irrigation recommendation for the stressed zone.
	require.NotEmpty(t, alert.Recommendations)
	assert.Contains(t, alert.Recommendations[0], "irrigation")
	assert.Contains(t, alert.Recommendations[0], "Zone A")
}

func TestFuseDiseaseRiskScenario(t *testing.T) {
	// 20% waterlogged with forecast humidity 92: at least WARNING with a
	// disease-risk finding and drainage/fungicide recommendations.
	grid := modelGrid(10, 10)
	for i := 0; i < 20; i++ {
		grid.Cells[i] = Waterlogged
	}
	forecast := calmForecast()
	forecast.Humidity = 92

	alert := Fuse(grid, forecast, CurrentStats{})

	assert.GreaterOrEqual(t, alert.Priority, PriorityWarning)
	assert.True(t, findingsContain(alert.Findings, "Disease risk"))
	joined := strings.Join(alert.Recommendations, " | ")
	assert.Contains(t, joined, "drainage")
	assert.Contains(t, joined, "fungicide")
}

func TestFuseMildDeclineEscalatesToWarning(t *testing.T) {
	forecast := calmForecast()
	forecast.Trend[FeatSoilMoisture] = -0.7

	alert := Fuse(modelGrid(10, 10), forecast, CurrentStats{SoilMoisture: ptr(55)})

	assert.Equal(t, PriorityWarning, alert.Priority)
	assert.True(t, findingsContain(alert.Findings, "declining"))
	assert.False(t, findingsContain(alert.Findings, "days"), "no estimate for mild decline")
}

func TestFuseSteepDeclineUrgencyEscalatesCritical(t *testing.T) {
	forecast := calmForecast()
	forecast.Trend[FeatSoilMoisture] = -8

	alert := Fuse(modelGrid(10, 10), forecast, CurrentStats{SoilMoisture: ptr(40)})

	// (40-30)/8 = 1.25 days, under the urgency cutoff.
	assert.Equal(t, PriorityCritical, alert.Priority)
	assert.True(t, findingsContain(alert.Findings, "1.2 days"))
}

func TestFuseSteepDeclineWithoutCurrentMoisture(t *testing.T) {
	forecast := calmForecast()
	forecast.Trend[FeatSoilMoisture] = -8

	// No current reading: no division, no estimate, still a decline warning.
	alert := Fuse(modelGrid(10, 10), forecast, CurrentStats{})
	assert.Equal(t, PriorityWarning, alert.Priority)
	assert.True(t, findingsContain(alert.Findings, "declining"))
	assert.False(t, findingsContain(alert.Findings, "days"))
}

func TestFuseTemperatureFlagAlone(t *testing.T) {
	forecast := calmForecast()
	forecast.Temperature = 38

	alert := Fuse(modelGrid(10, 10), forecast, CurrentStats{})

	assert.Equal(t, PriorityWarning, alert.Priority)
	assert.True(t, findingsContain(alert.Findings, "temperature"))
	require.Len(t, alert.Recommendations, 1)
	assert.Contains(t, alert.Recommendations[0], "Monitor")
}

func TestFuseSeverityScore(t *testing.T) {
	grid := modelGrid(10, 10)
	for i := 0; i < 30; i++ {
		grid.Cells[i] = Stressed
	}
	for i := 30; i < 50; i++ {
		grid.Cells[i] = Waterlogged
	}

	alert := Fuse(grid, calmForecast(), CurrentStats{})
	// 0.6*0.30 + 1.0*0.20 = 0.38
	assert.InDelta(t, 0.38, alert.Severity, 1e-9)
}

func TestFuseSeverityClamped(t *testing.T) {
	grid := modelGrid(4, 4)
	for i := range grid.Cells {
		grid.Cells[i] = Waterlogged
	}
	forecast := calmForecast()
	alert := Fuse(grid, forecast, CurrentStats{})
	assert.InDelta(t, 1.0, alert.Severity, 1e-9)
}

func TestFuseConfidenceCaveat(t *testing.T) {
	t.Run("low forecast confidence", func(t *testing.T) {
		forecast := calmForecast()
		forecast.Confidence = 0.4

		alert := Fuse(modelGrid(10, 10), forecast, CurrentStats{})
		assert.Equal(t, verificationCaveat, alert.Caveat)
		assert.Equal(t, PriorityInfo, alert.Priority, "caveat must not change priority")
	})

	t.Run("fallback grid", func(t *testing.T) {
		grid := NewHealthGrid(10, 10)
		grid.Source = GridSourceFallback

		alert := Fuse(grid, calmForecast(), CurrentStats{})
		assert.Equal(t, verificationCaveat, alert.Caveat)
	})

	t.Run("confident inputs carry no caveat", func(t *testing.T) {
		alert := Fuse(modelGrid(10, 10), calmForecast(), CurrentStats{})
		assert.Empty(t, alert.Caveat)
	})
}

func TestFuseZoneFindingsInDiscoveryOrder(t *testing.T) {
	grid := modelGrid(10, 10)
	grid.Cells[0] = Stressed     // (0,0) -> Zone A
	grid.Cells[55] = Waterlogged // (5,5) -> Zone B

	alert := Fuse(grid, calmForecast(), CurrentStats{})

	var zoneFindings []string
	for _, f := range alert.Findings {
		if strings.HasPrefix(f, "Zone ") {
			zoneFindings = append(zoneFindings, f)
		}
	}
	require.Len(t, zoneFindings, 2)
	assert.Contains(t, zoneFindings[0], "Zone A: stressed")
	assert.Contains(t, zoneFindings[1], "Zone B: waterlogged")
}

func TestFuseNeverPanics(t *testing.T) {
	// A corrupt grid (shape without cells) would index out of range inside
	// zone discovery; fuse must absorb that into the degraded alert.
	corrupt := HealthGrid{Rows: 4, Cols: 4, Cells: []HealthClass{Stressed}}

	alert := Fuse(corrupt, calmForecast(), CurrentStats{})
	assert.Equal(t, PriorityInfo, alert.Priority)
	require.Len(t, alert.Findings, 1)
	assert.Contains(t, alert.Findings[0], "degraded")
}

func TestPriorityJSONRoundTrip(t *testing.T) {
	for _, p := range []Priority{PriorityInfo, PriorityWarning, PriorityCritical} {
		b, err := p.MarshalJSON()
		require.NoError(t, err)
		var got Priority
		require.NoError(t, got.UnmarshalJSON(b))
		assert.Equal(t, p, got)
	}
	var bad Priority
	assert.Error(t, bad.UnmarshalJSON([]byte(`"URGENT"`)))
}
