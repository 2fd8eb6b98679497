package unixfs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusos/unixfs"
)

func TestFSErrorWithMessage(t *testing.T) {
	newErr := unixfs.ErrExists.WithMessage("asdfqwerty")
	assert.Equal(t, "file exists: asdfqwerty", newErr.Error())
	assert.ErrorIs(t, newErr, unixfs.ErrExists)
}

func TestFSErrorWrap(t *testing.T) {
	originalErr := errors.New("original error")
	newErr := unixfs.ErrIOFailed.Wrap(originalErr)
	expectedMessage := "input/output error: original error"

	assert.EqualValues(t, expectedMessage, newErr.Error())
	assert.ErrorIs(t, newErr, originalErr, "original error not set as parent")
	assert.ErrorIs(t, newErr, unixfs.ErrIOFailed, "sentinel not set as parent")
}

func TestFSErrorDistinctSentinels(t *testing.T) {
	newErr := unixfs.ErrNotFound.WithMessage("no such file")
	assert.NotErrorIs(t, newErr, unixfs.ErrExists)
}
