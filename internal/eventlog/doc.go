// Package eventlog writes the durable, append-only event trail consumed by
// SIEM tooling: one JSON object per line for every transition, error and
// notification outcome.
//
// Records go through a Sink; FileSink appends to a JSONL file, KafkaSink
// mirrors records to a topic and Multi fans out to several sinks.
package eventlog
