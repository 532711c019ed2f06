package node

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrValidation          = errors.ErrValidation
	ErrModuleOffline       = errors.ErrModuleOffline
	ErrIncompatibleVersion = errors.ErrIncompatibleVersion
	ErrPublish             = errors.ErrTransport
	ErrEncode              = errors.ErrorCode("node_encode_failed")
)
