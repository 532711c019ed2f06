package app

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrUnknownAlias = errors.ErrorCode("unknown_alias")
	ErrBadMetric    = errors.ErrorCode("bad_metric_value")
)
