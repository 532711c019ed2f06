package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrBindFlags     ErrorCode = "bind_flags_failed"

	// Logging errors
	ErrInvalidLogLevel  ErrorCode = "invalid_log_level"
	ErrInvalidShowLevel ErrorCode = "invalid_show_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Operator input
	ErrValidation ErrorCode = "validation_failed"

	// Broker and node errors
	ErrTransport           ErrorCode = "transport_failed"
	ErrIncompatibleVersion ErrorCode = "incompatible_version"
	ErrModuleOffline       ErrorCode = "module_offline"

	// Data logging
	ErrLogIO ErrorCode = "log_io_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:            "Internal error occurred",
	ErrInvalidArgument:     "Invalid argument provided",
	ErrUnavailable:         "Service unavailable",
	ErrAlreadyRunning:      "Another instance is already running",
	ErrInvalidConfig:       "Invalid configuration",
	ErrReadConfig:          "Failed to read config file",
	ErrBindFlags:           "Failed to bind flags",
	ErrInvalidLogLevel:     "Invalid log level",
	ErrInvalidShowLevel:    "Invalid show level",
	ErrInitFailed:          "Initialization failed",
	ErrShutdownFailed:      "Shutdown failed",
	ErrValidation:          "Invalid input",
	ErrTransport:           "Broker communication failed",
	ErrIncompatibleVersion: "Module reports an incompatible communications version",
	ErrModuleOffline:       "Module is not alive",
	ErrLogIO:               "Failed to write data log",
	ErrOperationFailed:     "Operation failed",
	ErrTimeout:             "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
