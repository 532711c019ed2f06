package transport

import "codeberg.org/mutker/vcmclient/internal/errors"

const (
	ErrConnect     = errors.ErrorCode("transport_connect_failed")
	ErrSubscribe   = errors.ErrorCode("transport_subscribe_failed")
	ErrUnsubscribe = errors.ErrorCode("transport_unsubscribe_failed")
	ErrPublish     = errors.ErrorCode("transport_publish_failed")
	ErrClosed      = errors.ErrorCode("transport_closed")
	ErrTimeout     = errors.ErrTimeout
)
