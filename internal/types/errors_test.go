package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, NewError(ErrUnavailable, "x").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, NewError(ErrInvalidInput, "x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewError(ErrUpstream, "x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewError(ErrInternal, "x").HTTPStatus())
}

func TestStatusOverride(t *testing.T) {
	err := NewError(ErrInvalidInput, "image file too large").WithStatus(http.StatusRequestEntityTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, err.HTTPStatus())
}

func TestCauseUnwrapping(t *testing.T) {
	root := errors.New("root")
	err := NewError(ErrInternal, "wrapped").WithCause(root)

	assert.True(t, errors.Is(err, root))
	assert.Contains(t, err.Error(), "root")
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(ErrUnavailable, "model missing"))

	assert.Equal(t, ErrUnavailable, KindOf(err))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusOf(err))
	assert.Equal(t, ErrInternal, KindOf(errors.New("plain")))
}
