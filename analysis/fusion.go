package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Priority of an Alert. Ordering matters: INFO < WARNING < CRITICAL, and
// escalation within one fusion run never goes backward.
type Priority int

const (
	PriorityInfo Priority = iota
	PriorityWarning
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "CRITICAL":
		*p = PriorityCritical
	case "WARNING":
		*p = PriorityWarning
	case "INFO":
		*p = PriorityInfo
	default:
		return fmt.Errorf("unknown priority %q", s)
	}
	return nil
}

// CurrentStats is the latest field-wide snapshot supplied by the caller.
// Optional readings are nil when the telemetry store has nothing recent.
type CurrentStats struct {
	SoilMoisture *float64 `json:"soil_moisture,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty"`
	PH           *float64 `json:"ph,omitempty"`
}

// Alert is the terminal fused output: one prioritized, structured record per
// fusion run. Formatting into display text is the presentation layer's job.
type Alert struct {
	Priority        Priority      `json:"priority"`
	Findings        []string      `json:"findings"`
	Recommendations []string      `json:"recommendations"`
	Caveat          string        `json:"caveat,omitempty"`
	Severity        float64       `json:"severity"` // in [0,1]
	Zones           []ProblemZone `json:"zones,omitempty"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

// Rule thresholds. Waterlogging is weighted above general stress throughout:
// drainage failure is the more acute condition.
const (
	stressedWarnPct      = 25.0
	waterloggedWarnPct   = 15.0
	stressedSeverityW    = 0.6
	waterloggedSeverityW = 1.0

	criticalSoilMoisture = 30.0
	steepMoistureDecline = -1.0
	mildMoistureDecline  = -0.5
	urgentDaysToCritical = 2.0

	tempSafeLow      = 10.0
	tempSafeHigh     = 35.0
	humiditySafeLow  = 30.0
	humiditySafeHigh = 90.0

	comboStressedPct    = 20.0
	comboWaterloggedPct = 10.0

	lowConfidenceCutoff = 0.6
)

const verificationCaveat = "Forecast confidence is low; verify conditions in the field before acting."

// Fuse combines a health grid, a forecast and the current readings into one
// prioritized alert. It is a deterministic rule engine: identical inputs give
// identical output apart from the generation timestamp. It never panics out;
// any internal failure yields a fixed degraded INFO alert.
func Fuse(grid HealthGrid, forecast ForecastRecord, stats CurrentStats) (alert Alert) {
	defer func() {
		if r := recover(); r != nil {
			alert = Alert{
				Priority:    PriorityInfo,
				Findings:    []string{"Alert generation degraded; raw observations unavailable for rule evaluation."},
				GeneratedAt: time.Now().UTC(),
			}
		}
	}()

	f := fusion{priority: PriorityInfo}

	// Step 1: grid analysis.
	stressedPct, waterloggedPct := grid.ClassShares()
	if stressedPct > stressedWarnPct {
		f.escalate(PriorityWarning)
		f.findingf("Vegetation stress detected across %.1f%% of the field.", stressedPct)
	}
	if waterloggedPct > waterloggedWarnPct {
		f.escalate(PriorityWarning)
		f.findingf("Waterlogging detected across %.1f%% of the field.", waterloggedPct)
	}
	zones := FindProblemZones(grid)
	for _, z := range zones {
		f.findingf("%s: %s region of %d px near row %.0f, col %.0f.",
			z.Label, z.DominantName, z.PixelCount, z.CentroidRow, z.CentroidCol)
	}
	severity := (stressedSeverityW*stressedPct + waterloggedSeverityW*waterloggedPct) / 100
	severity = math.Min(1, math.Max(0, severity))

	// Step 2: forecast analysis.
	moistureCritical := forecast.SoilMoisture < criticalSoilMoisture
	if moistureCritical {
		f.escalate(PriorityCritical)
		f.findingf("Forecast soil moisture %.1f%% is below the %.0f%% critical threshold.",
			forecast.SoilMoisture, criticalSoilMoisture)
	}
	moistTrend := forecast.Trend[FeatSoilMoisture]
	switch {
	case moistTrend < steepMoistureDecline && stats.SoilMoisture != nil && *stats.SoilMoisture > criticalSoilMoisture:
		days := (*stats.SoilMoisture - criticalSoilMoisture) / math.Abs(moistTrend)
		f.findingf("Soil moisture declining steeply (%.1f/step); about %.1f days until the critical threshold.",
			moistTrend, days)
		if days < urgentDaysToCritical {
			f.escalate(PriorityCritical)
		} else {
			f.escalate(PriorityWarning)
		}
	case moistTrend < mildMoistureDecline:
		f.escalate(PriorityWarning)
		f.findingf("Soil moisture trend is declining (%.1f/step).", moistTrend)
	}
	tempFlag := forecast.Temperature < tempSafeLow || forecast.Temperature > tempSafeHigh
	humidityHighFlag := forecast.Humidity > humiditySafeHigh

	// Step 3: cross-source rules.
	if stressedPct > comboStressedPct && moistureCritical {
		f.escalate(PriorityCritical)
		f.findingf("Combined risk: %.1f%% of canopy stressed while forecast soil moisture is critically low.", stressedPct)
		for _, z := range zones {
			if z.Dominant == Stressed {
				f.recommend(fmt.Sprintf("Prioritize irrigation in %s.", z.Label))
			}
		}
	}
	if waterloggedPct > comboWaterloggedPct && humidityHighFlag {
		f.escalate(PriorityWarning)
		f.findingf("Disease risk: %.1f%% of the field waterlogged with forecast humidity at %.1f%%.",
			waterloggedPct, forecast.Humidity)
		f.recommend("Inspect drainage in waterlogged zones.")
		f.recommend("Consider a preventive fungicide application.")
	}
	if tempFlag {
		f.escalate(PriorityWarning)
		f.findingf("Forecast temperature %.1f°C is outside the safe range %.0f-%.0f°C.",
			forecast.Temperature, tempSafeLow, tempSafeHigh)
		f.recommend("Monitor field conditions closely over the next forecast cycle.")
	}

	// Step 4: if nothing fired, report nominal conditions.
	if len(f.findings) == 0 {
		f.findingf("Field conditions normal; no action required.")
	}

	// Step 5: confidence caveat. A shaky forecast, or a grid that came from
	// the heuristic fallback, warrants field verification without changing
	// the priority reached above.
	caveat := ""
	if forecast.Confidence < lowConfidenceCutoff || grid.Source == GridSourceFallback {
		caveat = verificationCaveat
	}

	return Alert{
		Priority:        f.priority,
		Findings:        f.findings,
		Recommendations: f.recommendations,
		Caveat:          caveat,
		Severity:        severity,
		Zones:           zones,
		GeneratedAt:     time.Now().UTC(),
	}
}

// fusion accumulates rule outcomes. Priority is monotone: escalate only ever
// raises it.
type fusion struct {
	priority        Priority
	findings        []string
	recommendations []string
}

func (f *fusion) escalate(p Priority) {
	if p > f.priority {
		f.priority = p
	}
}

func (f *fusion) findingf(format string, args ...any) {
	f.findings = append(f.findings, fmt.Sprintf(format, args...))
}

// recommend appends a recommendation unless an identical one is already
// present, keeping first-appended order.
func (f *fusion) recommend(r string) {
	for _, existing := range f.recommendations {
		if existing == r {
			return
		}
	}
	f.recommendations = append(f.recommendations, r)
}
