package errors

// ErrorCode names a failure class. Codes are stable strings so they can be
// logged and matched across package boundaries.
type ErrorCode string

// Coded is implemented by every error this package creates.
type Coded interface {
	error
	Code() ErrorCode
}

// Error is a coded error carrying an optional message override, a wrapped
// cause and a data value (module id, metric name, offending input).
type Error interface {
	Coded
	WithMessage(msg string) Error
	WithData(data any) Error
	Data() any
	Unwrap() error
}

// Factory builds coded errors. Packages call New() once per function and
// reuse the factory for every return path.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
