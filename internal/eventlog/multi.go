package eventlog

import (
	"context"
	"errors"
)

// Multi writes every record to all sinks in order. A failing sink does not
// prevent the others from receiving the record; errors are joined.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, record Record) error {
	var errs []error

	for _, sink := range m {
		if err := sink.Write(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
