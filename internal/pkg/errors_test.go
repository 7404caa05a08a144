package pkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("event not found")))
	assert.Equal(t, CodeForbidden, CodeOf(fmt.Errorf("wrapped: %w", Forbidden("not your club"))))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("connection reset")))

	cause := errors.New("duplicate key")
	err := Conflict("slug taken", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConflict, CodeOf(err))
}
