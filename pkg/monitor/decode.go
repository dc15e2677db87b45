package monitor

import (
	"log/slog"
	"time"
)

// Decoder converts a stream of console lines into events.
type Decoder func(in <-chan Line) <-chan Event

// NewDecoder creates a decoder. Lines that are not log records are skipped.
func NewDecoder(bufSize int) Decoder {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return func(in <-chan Line) <-chan Event {
		out := make(chan Event, bufSize)

		go func() {
			defer close(out)

			for line := range in {
				ev, err := ParseLine(line)
				if err != nil {
					slog.Debug("skipping console line", "line", line.Text, "err", err)
					continue
				}

				select {
				case out <- ev:
				case <-time.After(time.Second):
					slog.Warn("decoder output channel full, dropping event", "kind", ev.Kind)
				}
			}
		}()

		return out
	}
}
