package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("task not found")

	assert.True(t, errors.Is(err, NotFound("label not found")))
	assert.False(t, errors.Is(err, Conflict("task not found")))
}

func TestCodeOf_WrappedChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("load user: %w", Persistence("failed to load user", cause))

	assert.Equal(t, CodePersistence, CodeOf(err))
	assert.True(t, IsCode(err, CodePersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "failed to load user", MessageOf(err, "fallback"))
}

func TestCodeOf_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, CodeUnknown, CodeOf(err))
	assert.False(t, IsCode(nil, CodeUnknown))
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
}

func TestInvalidCredentials(t *testing.T) {
	err := InvalidCredentials()

	assert.Equal(t, CodeAuthentication, err.Code)
	assert.Equal(t, "could not validate credentials", err.Error())
}
