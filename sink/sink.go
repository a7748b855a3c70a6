package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"onelane/types"
)

// Sink consumes one decision per control cycle.
type Sink interface {
	Publish(d types.Decision) error
	Close() error
}

// LogSink writes every decision to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Publish logs the command and any diagnostic notes.
func (s LogSink) Publish(d types.Decision) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(fmt.Sprintf("throttle = %f steering = %f", d.Command.Throttle, d.Command.AngleDeg),
		"frame", d.FrameSeq,
		"outcome", d.Outcome.String(),
	)
	if len(d.Notes) > 0 {
		logger.Info("decision notes", "frame", d.FrameSeq, "notes", strings.Join(d.Notes, "; "))
	}
	return nil
}

// Close is a no-op.
func (LogSink) Close() error { return nil }

// Multi fans a decision out to several sinks. Every sink sees every decision even when
// an earlier one fails.
type Multi []Sink

// Publish forwards d to all sinks and joins their errors.
func (m Multi) Publish(d types.Decision) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all sinks and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
