package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfWriter connects a UDP GELF writer to a Graylog input.
func NewGelfWriter(address, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("failed to create GELF writer for %s: %w", address, err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return w, nil
}

// NewGelfHandler writes each record as one JSON line, which the GELF writer
// turns into one message.
func NewGelfHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}
