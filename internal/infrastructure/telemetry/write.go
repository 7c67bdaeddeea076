package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStreamMetric writes a single stream measurement to InfluxDB.
//
// This is the primary method for recording stream telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - streamID: Unique identifier for the stream (e.g., "stream-main")
//   - measurement: The metric name (e.g., "progress", "current_time_ms")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteStreamMetric("stream-main", "progress", 0.42)
//	client.WriteStreamMetric("stream-main", "current_time_ms", 12400)
func (c *Client) WriteStreamMetric(streamID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"stream_metrics",
		map[string]string{
			"stream_id":   streamID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSceneTransition records a scene change on a stream.
//
// Used for tracking when each scene became active, which powers
// after-show timing reports.
//
// Parameters:
//   - streamID: Stream identifier
//   - scene: Name of the scene that became active
//   - positionMS: Schedule position at the transition, in milliseconds
func (c *Client) WriteSceneTransition(streamID string, scene string, positionMS int64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"scene_transitions",
		map[string]string{
			"stream_id": streamID,
			"scene":     scene,
		},
		map[string]interface{}{
			"position_ms": positionMS,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
