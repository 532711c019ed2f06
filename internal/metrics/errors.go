package metrics

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrUnknownMetric = errors.ErrorCode("metrics_unknown_metric")
	ErrInvalidValue  = errors.ErrorCode("metrics_invalid_value")
)
