package mqtt

import "fmt"

// Topic prefixes for the Showcue MQTT scheme.
//
// All topics live under the flat scheme: showcue/{category}/...
const (
	// TopicPrefix is the base for all Showcue topics.
	TopicPrefix = "showcue"

	// TopicPrefixOrchestrator is the base for command and ack topics.
	TopicPrefixOrchestrator = "showcue/orchestrator"

	// TopicPrefixStream is the base for stream state topics.
	TopicPrefixStream = "showcue/stream"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "showcue/system"
)

// Topics provides builders for Showcue MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	updates := topics.StreamUpdates("stream-main")
//	// Returns: "showcue/stream/stream-main/updates"
type Topics struct{}

// OrchestratorCommand returns the topic commands for all streams arrive on.
//
// Example: showcue/orchestrator/command
func (Topics) OrchestratorCommand() string {
	return fmt.Sprintf("%s/command", TopicPrefixOrchestrator)
}

// OrchestratorAck returns the topic for acknowledgements of a specific request.
//
// Example: showcue/orchestrator/ack/req-abc123
func (Topics) OrchestratorAck(requestID string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefixOrchestrator, requestID)
}

// StreamUpdates returns the state update topic for a single stream.
// Updates are published retained so late joiners receive the latest state.
//
// Example: showcue/stream/stream-main/updates
func (Topics) StreamUpdates(streamID string) string {
	return fmt.Sprintf("%s/%s/updates", TopicPrefixStream, streamID)
}

// StreamUpdatesAggregate returns the combined update topic carrying state
// updates from every stream. Dashboards that track the whole deployment
// subscribe here instead of one topic per stream.
//
// Example: showcue/stream/updates
func (Topics) StreamUpdatesAggregate() string {
	return fmt.Sprintf("%s/updates", TopicPrefixStream)
}

// AllStreamUpdates returns a pattern matching state updates from every stream.
//
// Pattern: showcue/stream/+/updates
func (Topics) AllStreamUpdates() string {
	return fmt.Sprintf("%s/+/updates", TopicPrefixStream)
}

// SystemStatus returns the system status topic.
// Online/offline payloads and the LWT are published here, retained.
//
// Example: showcue/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: showcue/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}
