// Package stream manages the lifecycle of per-stream scheduling engines and
// their connection to the outside world.
//
// # Architecture
//
//	                    showcue/orchestrator/command
//	                               │
//	                               ▼
//	  MQTT Client ──────────▶ Router ──────────▶ Manager
//	                                                │
//	                              ┌─────────────────┼─────────────────┐
//	                              ▼                 ▼                 ▼
//	                    ManagedOrchestrator  ManagedOrchestrator     ...
//	                         │        │
//	                  publish loop  completion monitor
//	                         │
//	              ┌──────────┴──────────┐
//	              ▼                     ▼
//	          MQTTSink              HubSink
//	    (per-stream + aggregate   (WebSocket
//	        bus topics)            broadcast)
//
// The Manager is the registry: one ManagedOrchestrator per stream ID, each
// wrapping a scheduling engine from the orchestrator package. The Router
// decodes CommandEnvelope messages from the bus, drives the addressed
// engine, and answers request IDs with CommandAck messages.
//
// Each ManagedOrchestrator supervises two tasks with an errgroup: a state
// publisher forwarding engine snapshots to every Sink, and a completion
// monitor that shuts the engine down when a finite timeline is exhausted.
// Looping schedules wrap before ever publishing a complete snapshot, so
// the monitor never fires for them.
//
// # Thread Safety
//
// Manager and Router are safe for concurrent use. Sinks must be safe for
// concurrent use since multiple orchestrators may share one.
package stream
