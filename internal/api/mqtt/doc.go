// Package mqtt publishes the room summary as a retained MQTT message.
//
// The connection is managed by autopaho, which reconnects in the background;
// a summary published while disconnected fails and is simply retried on the
// next summary cycle.
package mqtt
