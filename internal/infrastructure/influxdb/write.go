package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the feeder.
const (
	MeasurementSignal  = "wifi_signal"
	MeasurementSession = "broker_session"
)

// RecordSignal writes one Wi-Fi signal sample: the raw level in dBm and the
// 0-100 quality derived from it.
//
//	client.RecordSignal("AABBCCDDEEFF", -70, 60)
func (c *Client) RecordSignal(deviceID string, rssi, quality int) {
	c.writePoint(signalPoint(deviceID, rssi, quality, time.Now()))
}

// RecordSession writes a broker session transition (1 connected, 0 not).
func (c *Client) RecordSession(deviceID string, connected bool) {
	c.writePoint(sessionPoint(deviceID, connected, time.Now()))
}

// WritePoint writes a custom point with full control over tags and fields.
//
//	client.WritePoint("feeder_events",
//	    map[string]string{"device_id": "AABBCCDDEEFF"},
//	    map[string]interface{}{"portions": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.writePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func (c *Client) writePoint(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func signalPoint(deviceID string, rssi, quality int, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementSignal,
		map[string]string{"device_id": deviceID},
		map[string]interface{}{
			"rssi_dbm": rssi,
			"quality":  quality,
		},
		at,
	)
}

func sessionPoint(deviceID string, connected bool, at time.Time) *write.Point {
	state := 0
	if connected {
		state = 1
	}
	return write.NewPoint(
		MeasurementSession,
		map[string]string{"device_id": deviceID},
		map[string]interface{}{"connected": state},
		at,
	)
}
