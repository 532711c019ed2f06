package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFromCode(t *testing.T) {
	err := errors.New().New(errors.ErrValidation)

	assert.Equal(t, "Invalid input", err.Error())
	assert.Equal(t, errors.ErrValidation, err.Code())
}

func TestUnknownCodeFallsBackToCode(t *testing.T) {
	err := errors.New().New(errors.ErrorCode("something_odd"))

	assert.Equal(t, "something_odd", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := errors.New().Wrap(errors.ErrLogIO, cause)

	assert.Equal(t, "Failed to write data log: disk full", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestWithMessageAndData(t *testing.T) {
	err := errors.New().WithMessage(errors.ErrValidation, "DAC index out of range").WithData(15)

	assert.Equal(t, "DAC index out of range: 15", err.Error())
	assert.Equal(t, 15, err.Data())
	assert.Equal(t, errors.ErrValidation, err.Code())
}

func TestIsMatchesByCode(t *testing.T) {
	err := errors.New().WithMessage(errors.ErrTransport, "publish timed out")

	assert.True(t, errors.Is(err, errors.New().New(errors.ErrTransport)))
	assert.False(t, errors.Is(err, errors.New().New(errors.ErrLogIO)))
}

func TestHasCode(t *testing.T) {
	inner := errors.New().New(errors.ErrTimeout)
	outer := errors.New().Wrap(errors.ErrTransport, fmt.Errorf("connect: %w", inner))

	assert.True(t, errors.HasCode(outer, errors.ErrTransport))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrLogIO))
	assert.False(t, errors.HasCode(nil, errors.ErrLogIO))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrLogIO))
}

func TestAsExtractsCode(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", errors.New().New(errors.ErrIncompatibleVersion))

	var coded errors.Error
	require.True(t, errors.As(wrapped, &coded))
	assert.Equal(t, errors.ErrIncompatibleVersion, coded.Code())
}
