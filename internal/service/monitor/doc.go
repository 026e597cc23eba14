// Package monitor runs the room poll loop.
//
// The Scheduler lists rooms at a fixed interval, hands every snapshot to the
// transition detector, records and announces each transition, persists the
// tracked rooms and periodically publishes the room summary. Run wires the
// loop to its collaborators from the configuration file.
package monitor
