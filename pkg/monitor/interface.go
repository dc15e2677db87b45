package monitor

// Device defines the interface for console sources (real or simulated).
type Device interface {
	Connect() error
	Close() error
	Lines() <-chan Line
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
