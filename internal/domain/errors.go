package domain

import "errors"

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a channel-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "dial", "read", "send")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// DecodeError reports an inbound frame that could not be understood at all.
// Partially malformed payloads never produce one; their bad fields are dropped.
type DecodeError struct {
	Event string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return "decode: " + e.Err.Error()
	}
	return "decode [" + e.Event + "]: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var (
	// ErrNotConnected is returned when a command is sent while the channel is down. Retriable.
	ErrNotConnected = errors.New("channel not connected")

	// ErrInvalidSymbol is returned when a symbol is empty or malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidOperator is returned for alert operators other than > < >= <=
	ErrInvalidOperator = errors.New("invalid alert operator")

	// ErrInvalidAlertID is returned when an update/delete names no alert
	ErrInvalidAlertID = errors.New("invalid alert id")

	// ErrMalformedFrame is returned when a frame is not a JSON envelope
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUnknownEvent is returned for envelope names the engine does not handle
	ErrUnknownEvent = errors.New("unknown event")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
