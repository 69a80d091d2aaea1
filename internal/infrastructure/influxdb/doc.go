// Package influxdb records feeder telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 and writes two measurements:
//   - wifi_signal (rssi_dbm, quality) on every signal-strength report
//   - broker_session (connected 1/0) on every broker session change
//
// Both are tagged with device_id, the normalised MAC address.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordSignal("AABBCCDDEEFF", -70, 60)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Async write errors go to the SetOnError callback.
package influxdb
