package main

import (
	"os"
	"strconv"
)

type Config struct {
	MongoURI  string
	MongoDB   string
	JWTSecret string
	Port      string

	// MQTT bridge; the forwarder stays off while MQTTBroker is empty.
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	// Pipeline tuning.
	HorizonHours  int
	PatchWindow   int
	HistoryWindow int
}

func mustConfig() Config {
	return Config{
		MongoURI:  getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getenv("MONGO_DB", "agrisight"),
		JWTSecret: getenv("JWT_SECRET", "change_me"),
		Port:      getenv("PORT", "8080"),

		MQTTBroker:   getenv("MQTT_BROKER", ""),
		MQTTTopic:    getenv("MQTT_TOPIC", "agri/sensors/+/data"),
		MQTTClientID: getenv("MQTT_CLIENT_ID", "agrisight-forwarder"),

		HorizonHours:  getenvInt("FORECAST_HORIZON_HOURS", 6),
		PatchWindow:   getenvInt("PATCH_WINDOW", 7),
		HistoryWindow: getenvInt("HISTORY_WINDOW", 20),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
