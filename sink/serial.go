package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.bug.st/serial"

	"onelane/types"
	"onelane/utils"
)

// PortOptions are the serial line settings of the radio link.
type PortOptions struct {
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
}

// PortOptionsFrom extracts the line settings from the serial config.
func PortOptionsFrom(cfg types.SerialConfig) PortOptions {
	return PortOptions{BaudRate: cfg.BaudRate, DataBits: cfg.DataBits, StopBits: cfg.StopBits, Parity: cfg.Parity}
}

// Normalize validates the options and applies defaults for unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o
	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}
	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch parity := strings.TrimSpace(strings.ToUpper(opts.Parity)); parity {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	return opts, nil
}

// SerialMode converts the options into the structure serial.Open expects.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{BaudRate: opts.BaudRate, DataBits: opts.DataBits}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode, nil
}

// SerialSink sends "steer,throttle" lines to the vehicle microcontroller. Steering is
// mapped from degrees to the servo's [-1, 1] range with a linear fit.
type SerialSink struct {
	mu     sync.Mutex
	w      io.WriteCloser
	gain   float64
	offset float64
}

// NewSerialSink wraps an open port or any other writer.
func NewSerialSink(w io.WriteCloser, gain, offset float64) *SerialSink {
	return &SerialSink{w: w, gain: gain, offset: offset}
}

// OpenSerial opens the configured port and returns a sink writing to it.
func OpenSerial(cfg types.SerialConfig) (*SerialSink, error) {
	mode, err := PortOptionsFrom(cfg).SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return NewSerialSink(port, cfg.SteerGain, cfg.SteerOffset), nil
}

// Steer maps a steering angle in degrees to the normalised servo command.
func (s *SerialSink) Steer(angleDeg float64) float64 {
	return utils.Clamp(s.gain*angleDeg+s.offset, -1, 1)
}

// Publish writes one command line.
func (s *SerialSink) Publish(d types.Decision) error {
	line := fmt.Sprintf("%.4f,%.4f\n", s.Steer(d.Command.AngleDeg), d.Command.Throttle)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
