package link

import (
	"fmt"

	"go.bug.st/serial"
)

// Opener opens the device at path using already normalised options.
// This allows for easier testing by replacing the opener function.
type Opener func(path string, opts PortOptions) (TimeoutPort, error)

// OpenSerial is the Opener backed by go.bug.st/serial.
func OpenSerial(path string, opts PortOptions) (TimeoutPort, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// Open opens path with opener, applies the read timeout from opts and wraps
// the port as a Link called name.
func Open(opener Opener, name, path string, opts PortOptions) (*Link, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%s port options: %w", name, err)
	}

	port, err := opener(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s port %s: %w", name, path, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set %s read timeout: %w", name, err)
	}

	return New(name, port), nil
}
