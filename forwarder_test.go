package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceIDFromTopic(t *testing.T) {
	assert.Equal(t, "FIELD1_SENSOR_001", deviceIDFromTopic("agri/sensors/FIELD1_SENSOR_001/data"))
	assert.Equal(t, "unknown", deviceIDFromTopic("agri/sensors"))
	assert.Equal(t, "unknown", deviceIDFromTopic("agri/sensors//data"))
}
