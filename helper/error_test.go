package helper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError("open database connection", cause)

	assert.EqualError(t, err, "error in open database connection: connection refused")
	assert.ErrorIs(t, err, cause, "Expected the cause to stay unwrappable")
}
