package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"agrisight/models"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// handleIngestReading validates and stores one sensor reading.
func (a *App) handleIngestReading(w http.ResponseWriter, r *http.Request) {
	var reading models.SensorReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	if err := reading.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := a.readings.InsertOne(ctx, &reading); err != nil {
		a.log.Error("reading insert", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(bson.M{"ok": true})
}

// handleLatestSensors returns the newest reading per device.
func (a *App) handleLatestSensors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	cur, err := a.readings.Aggregate(ctx, []bson.D{
		{{Key: "$sort", Value: bson.D{{Key: "ts", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$deviceId"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "deviceId", Value: 1}}}},
	})
	if err != nil {
		a.log.Error("latest sensors aggregate", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	out := []models.SensorReading{}
	if err := cur.All(ctx, &out); err != nil {
		http.Error(w, "decode error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(bson.M{"timestamp": time.Now().UTC(), "devices": out})
}

// handleDeviceSensor returns the newest reading of one device.
func (a *App) handleDeviceSensor(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var reading models.SensorReading
	err := a.readings.FindOne(ctx,
		bson.M{"deviceId": deviceID},
		options.FindOne().SetSort(bson.D{{Key: "ts", Value: -1}}),
	).Decode(&reading)
	if err != nil {
		http.Error(w, "device not found", http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(reading)
}

// handleHistory returns recent readings, newest first, optionally filtered by
// device.
func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if id := r.URL.Query().Get("device_id"); id != "" {
		filter["deviceId"] = id
	}
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	cur, err := a.readings.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "ts", Value: -1}}).SetLimit(int64(limit)),
	)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer cur.Close(ctx)

	out := []models.SensorReading{}
	if err := cur.All(ctx, &out); err != nil {
		http.Error(w, "decode error", http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(bson.M{"data": out, "total_records": len(out)})
}
