package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"agrisight/analysis"
)

// StoredAlert is a fused (or manually raised) alert persisted in the
// "alerts" collection. It stays structured — priority plus ordered finding
// and recommendation lists — and is formatted for display by clients.
type StoredAlert struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"             json:"-"`
	AlertID         string             `bson:"alertId"                   json:"alert_id"`
	Priority        analysis.Priority  `bson:"priority"                  json:"priority"`
	Findings        []string           `bson:"findings"                  json:"findings"`
	Recommendations []string           `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
	Caveat          string             `bson:"caveat,omitempty"          json:"caveat,omitempty"`
	Severity        float64            `bson:"severity"                  json:"severity"`
	Confidence      float64            `bson:"confidence"                json:"confidence"`
	DeviceID        string             `bson:"deviceId,omitempty"        json:"device_id,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"                 json:"created_at"`
}

// AnalysisResult captures one full pipeline run in the "results" collection.
type AnalysisResult struct {
	ID             primitive.ObjectID      `bson:"_id,omitempty"   json:"-"`
	CreatedAt      time.Time               `bson:"createdAt"       json:"created_at"`
	DeviceID       string                  `bson:"deviceId,omitempty" json:"device_id,omitempty"`
	GridRows       int                     `bson:"gridRows"        json:"grid_rows"`
	GridCols       int                     `bson:"gridCols"        json:"grid_cols"`
	GridSource     analysis.GridSource     `bson:"gridSource"      json:"grid_source"`
	StressedPct    float64                 `bson:"stressedPct"     json:"stressed_pct"`
	WaterloggedPct float64                 `bson:"waterloggedPct"  json:"waterlogged_pct"`
	Zones          []analysis.ProblemZone  `bson:"zones,omitempty" json:"zones,omitempty"`
	Forecast       analysis.ForecastRecord `bson:"forecast"        json:"forecast"`
	Alert          StoredAlert             `bson:"alert"           json:"alert"`
}
