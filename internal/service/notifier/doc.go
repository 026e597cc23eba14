// Package notifier turns room transitions into webhook messages and records
// every delivery attempt in the event log.
package notifier
