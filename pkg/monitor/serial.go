package monitor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the console baud rate of the firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the line and event channel buffers.
	DefaultBufferSize = 100

	// espressifVID is the USB vendor ID of the ESP32-C3 USB-Serial-JTAG bridge.
	espressifVID = "303A"
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
	IsUSB       bool
	VID         string
	PID         string
}

// IsEspressif reports whether the port is an Espressif USB bridge.
func (p Port) IsEspressif() bool {
	return p.IsUSB && strings.EqualFold(p.VID, espressifVID)
}

// Serial reads the firmware console from a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	lines     chan Line
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		lines:     make(chan Line, bufSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports with USB details where known.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Product
		if desc == "" {
			desc = d.Name
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
			IsUSB:       d.IsUSB,
			VID:         d.VID,
			PID:         d.PID,
		})
	}

	return result, nil
}

// DetectPort picks the first Espressif port, or the only USB port when there
// is exactly one.
func DetectPort(ports []Port) (string, error) {
	var usb []Port
	for _, p := range ports {
		if p.IsEspressif() {
			return p.Name, nil
		}
		if p.IsUSB {
			usb = append(usb, p)
		}
	}
	if len(usb) == 1 {
		return usb[0].Name, nil
	}
	return "", fmt.Errorf("cannot detect board port: %d USB ports found", len(usb))
}

// Connect connects to the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}
	if d.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines(port)

	return nil
}

// Close closes the connection and waits for the reader to stop. The lines
// channel is closed by the reader.
func (d *Serial) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			slog.Warn("error closing serial port", "port", d.port, "err", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-time.After(time.Second):
		slog.Warn("serial reader did not stop", "port", d.port)
	}

	return nil
}

// Lines returns the channel for reading console lines.
func (d *Serial) Lines() <-chan Line {
	return d.lines
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) readLines(r io.Reader) {
	defer close(d.done)
	defer close(d.lines)

	scan(d.ctx, r, d.lines)
}

// scan reads lines from r until EOF, a read error, or ctx cancellation and
// forwards them without blocking.
func scan(ctx context.Context, r io.Reader, out chan<- Line) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic in console reader", "panic", p)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		select {
		case out <- Line{Timestamp: time.Now(), Text: text}:
		default:
			slog.Warn("lines channel full, dropping line")
		}

		if ctx.Err() != nil {
			return
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF && ctx.Err() == nil {
		slog.Error("error reading console", "err", err)
	}
}
