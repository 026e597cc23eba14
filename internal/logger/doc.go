// Package logger wraps zap to offer:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and runtime level changes,
//   - key-value helpers (InfoKV, WarnKV, ErrorKV, DebugKV).
//
// Every service takes a context and pulls its logger from it, so a component
// name or a room id attached once shows up on every line below it.
package logger
