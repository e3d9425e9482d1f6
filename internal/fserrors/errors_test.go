package fserrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/userlandfs/server/internal/fserrors"
	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesDirectKind(t *testing.T) {
	err := fserrors.Unsupported("Rename")
	assert.True(t, fserrors.Is(err, fserrors.KindUnsupportedOperation))
	assert.False(t, fserrors.Is(err, fserrors.KindFatal))
}

func TestIs_MatchesThroughWrapping(t *testing.T) {
	inner := fserrors.Cache("flush", errors.New("disk full"))
	wrapped := fmt.Errorf("flush_device: %w", inner)

	assert.True(t, fserrors.Is(wrapped, fserrors.KindCacheError))
}

func TestDriver_PreservesCause(t *testing.T) {
	cause := errors.New("ENOENT")
	err := fserrors.Driver(cause)

	assert.Equal(t, fserrors.KindDriverError, err.Kind)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestError_MessageFormat(t *testing.T) {
	err := fserrors.BadRequest("unknown op code 9001")
	assert.Contains(t, err.Error(), "BadRequest")
	assert.Contains(t, err.Error(), "unknown op code 9001")
}
