package sparkplug

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrInvalidTopic = errors.ErrorCode("sparkplug_invalid_topic")
	ErrDecode       = errors.ErrorCode("sparkplug_decode_failed")
	ErrEncode       = errors.ErrorCode("sparkplug_encode_failed")
)
