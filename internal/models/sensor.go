package models

import "time"

// SensorRecord is one sample collected during an active session.
type SensorRecord struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// SensorReading is the raw payload returned by the sauna hardware API.
type SensorReading struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Presence    bool      `json:"presence"`
	Timestamp   time.Time `json:"timestamp"`
}

// Record converts a hardware reading into a session sample.
func (r SensorReading) Record() SensorRecord {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return SensorRecord{Time: ts.UTC(), Temperature: r.Temperature, Humidity: r.Humidity}
}
