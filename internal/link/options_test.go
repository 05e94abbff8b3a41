package link

import (
	"testing"
	"time"

	"go.bug.st/serial"
)

func TestPortOptions_Normalize_Defaults(t *testing.T) {
	// Zero-value options should get defaults applied
	opts := PortOptions{}
	got, err := opts.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", got.BaudRate)
	}
	if got.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", got.DataBits)
	}
	if got.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", got.StopBits)
	}
	if got.Parity != "N" {
		t.Errorf("Parity = %q, want %q", got.Parity, "N")
	}
	if got.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %s, want 1s", got.ReadTimeout)
	}
}

func TestPortOptions_Normalize_ExplicitValues(t *testing.T) {
	opts := PortOptions{BaudRate: 115200, DataBits: 7, StopBits: 2, Parity: "E", ReadTimeout: 250 * time.Millisecond}
	got, err := opts.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got != opts {
		t.Errorf("Normalize() = %+v, want %+v", got, opts)
	}
}

func TestPortOptions_Normalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits too low", PortOptions{DataBits: 4}},
		{"data bits too high", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "X"}},
		{"negative timeout", PortOptions{ReadTimeout: -time.Second}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v): expected error, got nil", tc.opts)
			}
		})
	}
}

func TestPortOptions_Normalize_ParityVariations(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"n", "N"},
		{"NONE", "N"},
		{"even", "E"},
		{"O", "O"},
		{"odd", "O"},
		{"  E  ", "E"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := PortOptions{Parity: tc.input}.Normalize()
			if err != nil {
				t.Fatalf("Normalize() with parity %q: unexpected error %v", tc.input, err)
			}
			if got.Parity != tc.want {
				t.Errorf("Normalize() with parity %q: got %q, want %q", tc.input, got.Parity, tc.want)
			}
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 19200, StopBits: 2, Parity: "odd"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.BaudRate != 19200 {
		t.Errorf("BaudRate = %d, want 19200", mode.BaudRate)
	}
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want TwoStopBits", mode.StopBits)
	}
	if mode.Parity != serial.OddParity {
		t.Errorf("Parity = %v, want OddParity", mode.Parity)
	}
}

func TestPortOptions_SerialMode_InvalidOptions(t *testing.T) {
	if _, err := (PortOptions{Parity: "M"}).SerialMode(); err == nil {
		t.Error("expected error for unsupported parity, got nil")
	}
}
