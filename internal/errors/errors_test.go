package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := RaidNotFoundf("raid %q not found in channel %s", "lugia-0", "c1")

	assert.True(t, Is(err, ErrRaidNotFound))
	assert.False(t, Is(err, ErrAttendeeNotFound))
	assert.Equal(t, `raid "lugia-0" not found in channel c1`, err.Error())
}

func TestError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("join: %w", AlreadyJoinedf("member %s", "u1"))

	assert.True(t, Is(err, ErrAlreadyJoined))
	assert.Equal(t, CodeAlreadyJoined, CodeOf(err))
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("strconv: bad digit")
	err := ErrMalformedTimeInput.WithCause(cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed time input: strconv: bad digit", err.Error())
	assert.Nil(t, ErrMalformedTimeInput.Unwrap(), "sentinel must not be mutated")
}

func TestCodeOf_NonDomainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeRaidNotFound, http.StatusNotFound},
		{CodeAttendeeNotFound, http.StatusNotFound},
		{CodeAlreadyJoined, http.StatusConflict},
		{CodeNotAttending, http.StatusConflict},
		{CodeInvalidGroup, http.StatusBadRequest},
		{CodeMalformedTimeInput, http.StatusBadRequest},
		{CodePastTime, http.StatusUnprocessableEntity},
		{CodeAmbiguousOrTooFar, http.StatusUnprocessableEntity},
		{CodeOutOfOrder, http.StatusUnprocessableEntity},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_GetStatus(t *testing.T) {
	err := RaidNotFoundf("raid %s not found", "lugia-0")
	assert.Equal(t, http.StatusNotFound, err.GetStatus())
	assert.Equal(t, http.StatusConflict, ErrAlreadyJoined.WithDetails("x").GetStatus())
}
