package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/telemetryd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	errFactory := errors.New()

	assert.Equal(t, "Invalid log level", errFactory.New(errors.ErrInvalidLogLevel).Error())
	assert.Equal(t, "custom", errFactory.WithMessage(errors.ErrInternal, "custom").Error())
	assert.Equal(t, "Invalid interval value: -1s",
		errFactory.WithData(errors.ErrInvalidInterval, "-1s").Error())

	wrapped := errFactory.Wrap(errors.ErrReadConfig, fmt.Errorf("boom"))
	assert.Equal(t, "Failed to read config file: boom", wrapped.Error())
	assert.Equal(t, "unknown_code", errors.GetErrorMessage("unknown_code"))
}

func TestCodeMatching(t *testing.T) {
	errFactory := errors.New()
	cause := fmt.Errorf("disk full")
	inner := errFactory.Wrap(errors.ErrOpenLogFile, cause)
	outer := errFactory.Wrap(errors.ErrInitFailed, inner)

	assert.Equal(t, errors.ErrInitFailed, errors.CodeOf(outer))
	assert.True(t, errors.HasCode(outer, errors.ErrOpenLogFile))
	assert.False(t, errors.HasCode(outer, errors.ErrServeFeed))
	assert.True(t, errors.Is(outer, cause))
	assert.True(t, errors.Is(outer, errFactory.New(errors.ErrOpenLogFile)))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(cause))

	var appErr errors.Error
	require.True(t, errors.As(outer, &appErr))
	assert.Equal(t, inner, appErr.Unwrap())
}

func TestWithDataKeepsCode(t *testing.T) {
	base := errors.New().New(errors.ErrInvalidConfig)
	withData := base.WithData(map[string]int{"history_size": 0})

	assert.Equal(t, errors.ErrInvalidConfig, withData.Code())
	assert.Equal(t, map[string]int{"history_size": 0}, withData.GetData())
	assert.Nil(t, base.GetData())
}

func TestCodesHaveMessages(t *testing.T) {
	codes := []errors.ErrorCode{
		errors.ErrInternal,
		errors.ErrInvalidConfig,
		errors.ErrBindFlags,
		errors.ErrReadConfig,
		errors.ErrInvalidInterval,
		errors.ErrInvalidLogLevel,
		errors.ErrOpenLogFile,
		errors.ErrInitFailed,
		errors.ErrShutdownFailed,
		errors.ErrAlreadyRunning,
		errors.ErrServeFeed,
		errors.ErrSubmitCycle,
	}

	for _, code := range codes {
		assert.NotEqual(t, string(code), errors.GetErrorMessage(code), code)
	}
}
