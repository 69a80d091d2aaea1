package influxdb

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/config"
)

func checkName(t *testing.T, name string, p interface{ Name() string }) {
	t.Helper()
	if p.Name() != name {
		t.Errorf("Name() = %q, want %q", p.Name(), name)
	}
}

func TestSignalPoint(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := signalPoint("AABBCCDDEEFF", -70, 60, at)

	checkName(t, MeasurementSignal, p)
	if !p.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", p.Time(), at)
	}

	tags := p.TagList()
	if len(tags) != 1 || tags[0].Key != "device_id" || tags[0].Value != "AABBCCDDEEFF" {
		t.Errorf("TagList() = %+v", tags)
	}

	got := map[string]interface{}{}
	for _, f := range p.FieldList() {
		got[f.Key] = f.Value
	}
	if got["rssi_dbm"] != int64(-70) || got["quality"] != int64(60) {
		t.Errorf("FieldList() = %v", got)
	}
}

func TestSessionPoint(t *testing.T) {
	tests := []struct {
		connected bool
		want      int64
	}{
		{true, 1},
		{false, 0},
	}
	for _, tt := range tests {
		p := sessionPoint("AABBCCDDEEFF", tt.connected, time.Now())
		checkName(t, MeasurementSession, p)

		list := p.FieldList()
		if len(list) != 1 || list[0].Key != "connected" || list[0].Value != tt.want {
			t.Errorf("sessionPoint(%v) fields = %+v, want connected=%d", tt.connected, list, tt.want)
		}
	}
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		batch     int
		flush     int
		wantBatch uint
		wantFlush uint
	}{
		{"configured", 50, 2, 50, 2000},
		{"defaults", 0, 0, defaultBatchSize, 10000},
		{"negative", -1, -3, defaultBatchSize, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(config.InfluxDBConfig{BatchSize: tt.batch, FlushInterval: tt.flush})
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
		})
	}
}
