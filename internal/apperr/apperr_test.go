package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInput_Matching(t *testing.T) {
	err := fmt.Errorf("pick question: %w", Invalid("questions", "pool is empty"))

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, IsInvalidInput(err))
	assert.Equal(t, "pick question: invalid questions: pool is empty", err.Error())
}

func TestInvalidInput_Unwrap(t *testing.T) {
	cause := errors.New("bad month")
	err := &InvalidInput{Field: "last_reviewed", Reason: "not RFC 3339", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad month")
	assert.False(t, IsInvalidInput(cause))
}
