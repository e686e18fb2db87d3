package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := BadGatewayError("Upstream not responding", cause)

	assert.Equal(t, 502, err.Code)
	assert.Contains(t, err.Error(), "Upstream not responding")
	assert.ErrorIs(t, err, cause)
}

func TestAppError_NoCause(t *testing.T) {
	err := BadRequestError("messageId is required", nil)

	assert.Equal(t, 400, err.Code)
	assert.Equal(t, "messageId is required", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestAppError_StatusCodes(t *testing.T) {
	assert.Equal(t, 400, BadRequestError("", nil).Code)
	assert.Equal(t, 404, NotFoundError("", nil).Code)
	assert.Equal(t, 409, ConflictError("", nil).Code)
	assert.Equal(t, 422, UnprocessableError("", nil).Code)
	assert.Equal(t, 500, InternalServerError("", nil).Code)
	assert.Equal(t, 502, BadGatewayError("", nil).Code)
}

func TestAppError_WithContext(t *testing.T) {
	err := NotFoundError("Email not found", nil).WithContext("messageId", "m1")
	assert.Equal(t, "m1", err.Context["messageId"])
}
