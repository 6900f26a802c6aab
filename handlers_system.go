package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const apiVersion = "1.0.0"

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(bson.M{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   apiVersion,
	})
}

// handleSystemStatus reports uptime and the number of devices that have ever
// reported telemetry.
func (a *App) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	devices, err := a.readings.Distinct(ctx, "deviceId", bson.M{})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(statusResp{
		Status:           "operational",
		ConnectedDevices: int64(len(devices)),
		UptimeSeconds:    time.Since(a.started).Seconds(),
		Version:          apiVersion,
	})
}
