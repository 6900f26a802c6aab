package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agrisight/models"
)

const alertListLimit = 50

// handleListAlerts returns recent alerts, newest first.
func (a *App) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := a.alerts.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(alertListLimit),
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	out := []models.StoredAlert{}
	if err := cur.All(ctx, &out); err != nil {
		http.Error(w, "decode error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleCreateAlert raises a manual alert alongside the fused ones.
func (a *App) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if len(req.Findings) == 0 {
		http.Error(w, "at least one finding is required", http.StatusBadRequest)
		return
	}

	alert := models.StoredAlert{
		AlertID:         uuid.NewString(),
		Priority:        req.Priority,
		Findings:        req.Findings,
		Recommendations: req.Recommendations,
		Confidence:      req.Confidence,
		DeviceID:        req.DeviceID,
		CreatedAt:       time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := a.alerts.InsertOne(ctx, &alert); err != nil {
		a.log.Error("manual alert insert", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(alert)
}

// handleDismissAlert removes an alert by its public id.
func (a *App) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	res, err := a.alerts.DeleteOne(ctx, bson.M{"alertId": alertID})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if res.DeletedCount == 0 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(bson.M{"ok": true})
}
