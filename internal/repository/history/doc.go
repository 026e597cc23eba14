// Package history keeps every offline episode in a SQLite database.
//
// Episodes are upserted by room and start time, so an episode is inserted
// when a room goes down and updated in place when it comes back or is lost.
package history
