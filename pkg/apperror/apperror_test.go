package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := StateConflict("insufficient stock").WithDetail("bookId", "b1")

	assert.True(t, errors.Is(err, StateConflict("anything")))
	assert.False(t, errors.Is(err, NotFound("anything")))
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating order: %w", Forbidden("not your order"))

	assert.True(t, errors.Is(err, Forbidden("")))

	e := From(err)
	assert.Equal(t, CodeForbidden, e.Code)
	assert.Equal(t, http.StatusForbidden, e.Status)
}

func TestFromFoldsUnknownIntoInternal(t *testing.T) {
	e := From(errors.New("pq: connection refused"))

	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
	// The cause stays available for logs but not in the message shown.
	assert.Equal(t, "unexpected error", e.Message)
	require.Error(t, errors.Unwrap(e))
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	base := StateConflict("insufficient stock")
	withBook := base.WithDetail("bookId", "b42")

	assert.Nil(t, base.Details)
	assert.Equal(t, "b42", withBook.Details["bookId"])
}
