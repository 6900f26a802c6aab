package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SensorReading is one point-sensor observation as stored in the "readings"
// collection. Optional fields are resolved to pointers once at this boundary;
// downstream code never probes for field presence.
type SensorReading struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DeviceID     string             `bson:"deviceId"      json:"device_id"`
	Timestamp    time.Time          `bson:"ts"            json:"timestamp"`
	Temperature  float64            `bson:"temperature"   json:"temperature"`
	Humidity     float64            `bson:"humidity"      json:"humidity"`
	SoilMoisture float64            `bson:"soilMoisture"  json:"soil_moisture"`

	PHLevel        *float64           `bson:"phLevel,omitempty"        json:"ph_level,omitempty"`
	LightIntensity *float64           `bson:"lightIntensity,omitempty" json:"light_intensity,omitempty"`
	BatteryLevel   *float64           `bson:"batteryLevel,omitempty"   json:"battery_level,omitempty"`
	Location       map[string]float64 `bson:"location,omitempty"       json:"location,omitempty"`
}

// Validate enforces the physical ranges accepted at ingestion.
func (r SensorReading) Validate() error {
	if r.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if r.Temperature < -50 || r.Temperature > 70 {
		return fmt.Errorf("temperature %.1f out of range [-50, 70]", r.Temperature)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return fmt.Errorf("humidity %.1f out of range [0, 100]", r.Humidity)
	}
	if r.SoilMoisture < 0 || r.SoilMoisture > 100 {
		return fmt.Errorf("soil_moisture %.1f out of range [0, 100]", r.SoilMoisture)
	}
	if r.PHLevel != nil && (*r.PHLevel < 0 || *r.PHLevel > 14) {
		return fmt.Errorf("ph_level %.1f out of range [0, 14]", *r.PHLevel)
	}
	if r.LightIntensity != nil && *r.LightIntensity < 0 {
		return fmt.Errorf("light_intensity must be non-negative")
	}
	if r.BatteryLevel != nil && (*r.BatteryLevel < 0 || *r.BatteryLevel > 100) {
		return fmt.Errorf("battery_level %.1f out of range [0, 100]", *r.BatteryLevel)
	}
	return nil
}
