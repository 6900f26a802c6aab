package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"agrisight/models"
)

// startForwarder bridges the MQTT sensor feed into the telemetry store. It
// subscribes to the configured topic (device id in the third topic segment,
// e.g. agri/sensors/FIELD1_SENSOR_001/data) and ingests each JSON payload as
// a SensorReading. Invalid payloads are logged and dropped; the broker
// connection auto-reconnects.
func (a *App) startForwarder() error {
	opts := mqtt.NewClientOptions().
		AddBroker(a.cfg.MQTTBroker).
		SetClientID(a.cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		a.log.Info("mqtt connected", zap.String("broker", a.cfg.MQTTBroker))
		token := c.Subscribe(a.cfg.MQTTTopic, 1, a.onSensorMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			a.log.Error("mqtt subscribe", zap.String("topic", a.cfg.MQTTTopic), zap.Error(err))
			return
		}
		a.log.Info("mqtt subscribed", zap.String("topic", a.cfg.MQTTTopic))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		a.log.Warn("mqtt connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", a.cfg.MQTTBroker, err)
	}
	return nil
}

func (a *App) onSensorMessage(_ mqtt.Client, msg mqtt.Message) {
	var reading models.SensorReading
	if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
		a.log.Warn("mqtt payload rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	if reading.DeviceID == "" {
		reading.DeviceID = deviceIDFromTopic(msg.Topic())
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	if err := reading.Validate(); err != nil {
		a.log.Warn("mqtt reading rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.readings.InsertOne(ctx, &reading); err != nil {
		a.log.Error("mqtt reading insert", zap.Error(err))
		return
	}
	a.log.Debug("mqtt reading stored", zap.String("device", reading.DeviceID))
}

// deviceIDFromTopic pulls the device segment out of agri/sensors/<id>/data.
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 2 && parts[2] != "" {
		return parts[2]
	}
	return "unknown"
}
