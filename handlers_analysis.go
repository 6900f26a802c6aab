package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agrisight/analysis"
	"agrisight/models"
)

// handleRunAnalysis runs the full pipeline: classify the supplied reflectance
// cube, forecast from stored telemetry, fuse both with the latest reading,
// then persist and return the result. Each stage degrades to its fallback
// instead of failing, so the endpoint always produces a result once the
// request itself is well-formed.
func (a *App) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req runAnalysisReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	history, latest, err := a.loadHistory(ctx, req.DeviceID)
	if err != nil {
		a.log.Error("load history", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	var cube analysis.SpectralCube
	if req.Cube != nil {
		cube = analysis.NewSpectralCube(req.Cube.Rows, req.Cube.Cols, req.Cube.Bands, req.Cube.Data)
	}

	grid := a.classifier.Classify(cube)
	forecast := a.forecaster.Forecast(history, req.HorizonHours)
	stats := currentStats(latest)
	alert := analysis.Fuse(grid, forecast, stats)

	stressedPct, waterloggedPct := grid.ClassShares()
	stored := models.StoredAlert{
		AlertID:         uuid.NewString(),
		Priority:        alert.Priority,
		Findings:        alert.Findings,
		Recommendations: alert.Recommendations,
		Caveat:          alert.Caveat,
		Severity:        alert.Severity,
		Confidence:      forecast.Confidence,
		DeviceID:        req.DeviceID,
		CreatedAt:       alert.GeneratedAt,
	}
	result := models.AnalysisResult{
		CreatedAt:      alert.GeneratedAt,
		DeviceID:       req.DeviceID,
		GridRows:       grid.Rows,
		GridCols:       grid.Cols,
		GridSource:     grid.Source,
		StressedPct:    stressedPct,
		WaterloggedPct: waterloggedPct,
		Zones:          alert.Zones,
		Forecast:       forecast,
		Alert:          stored,
	}

	if _, err := a.alerts.InsertOne(ctx, &stored); err != nil {
		a.log.Error("alert insert", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if _, err := a.results.InsertOne(ctx, &result); err != nil {
		a.log.Error("result insert", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	a.log.Info("analysis complete",
		zap.String("priority", alert.Priority.String()),
		zap.String("gridSource", string(grid.Source)),
		zap.Float64("severity", alert.Severity),
		zap.Int("findings", len(alert.Findings)),
	)
	_ = json.NewEncoder(w).Encode(result)
}

// handleAnalysisResults returns the most recent pipeline run, if any.
func (a *App) handleAnalysisResults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var result models.AnalysisResult
	err := a.results.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&result)
	if err != nil {
		_ = json.NewEncoder(w).Encode(bson.M{"status": "no_results"})
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}

// loadHistory returns telemetry time-ascending for the forecaster, plus the
// newest reading for the fusion snapshot. deviceID empty means all devices.
func (a *App) loadHistory(ctx context.Context, deviceID string) ([]analysis.SensorSample, *models.SensorReading, error) {
	filter := bson.M{}
	if deviceID != "" {
		filter["deviceId"] = deviceID
	}

	limit := int64(a.cfg.HistoryWindow)
	if limit <= 0 {
		limit = 20
	}
	cur, err := a.readings.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var docs []models.SensorReading
	if err := cur.All(ctx, &docs); err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		return nil, nil, nil
	}

	// Stored newest-first; the forecaster wants most-recent-last.
	history := make([]analysis.SensorSample, len(docs))
	for i, d := range docs {
		history[len(docs)-1-i] = analysis.SensorSample{
			Temperature:  d.Temperature,
			Humidity:     d.Humidity,
			SoilMoisture: d.SoilMoisture,
			Timestamp:    d.Timestamp,
		}
	}
	latest := docs[0]
	return history, &latest, nil
}

// currentStats resolves the optional snapshot fields once, at the boundary.
func currentStats(latest *models.SensorReading) analysis.CurrentStats {
	if latest == nil {
		return analysis.CurrentStats{}
	}
	soil, temp, hum := latest.SoilMoisture, latest.Temperature, latest.Humidity
	stats := analysis.CurrentStats{
		SoilMoisture: &soil,
		Temperature:  &temp,
		Humidity:     &hum,
	}
	if latest.PHLevel != nil {
		ph := *latest.PHLevel
		stats.PH = &ph
	}
	return stats
}
