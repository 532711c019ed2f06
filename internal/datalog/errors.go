package datalog

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrLogIO = errors.ErrLogIO
)
