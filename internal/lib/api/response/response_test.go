package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"account_service/internal/auth"

	"github.com/stretchr/testify/assert"
)

func TestTranslate_Kinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
	}{
		{auth.ErrAccountExists, http.StatusBadRequest},
		{auth.ErrResetTokenInvalid, http.StatusBadRequest},
		{auth.ErrNotLoggedIn, http.StatusUnauthorized},
		{auth.ErrInvalidToken, http.StatusUnauthorized},
		{auth.ErrTokenExpired, http.StatusUnauthorized},
		{auth.ErrBadCredentials, http.StatusUnauthorized},
		{auth.ErrPasswordChanged, http.StatusUnauthorized},
		{auth.ErrStaleAccount, http.StatusUnauthorized},
		{auth.ErrForbidden, http.StatusForbidden},
		{auth.ErrAccountNotFound, http.StatusNotFound},
		{auth.ErrDeliveryFailed, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		status, body := Translate(tc.err)

		assert.Equal(t, tc.status, status, "error %v", tc.err)
		assert.Equal(t, StatusError, body.Status)
		assert.NotEmpty(t, body.Error)
	}
}

func TestTranslate_WrappedError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("handlers.login: %w", auth.ErrBadCredentials)

	status, body := Translate(wrapped)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, auth.ErrBadCredentials.Message, body.Error)
}

func TestTranslate_UnexpectedErrorDoesNotLeak(t *testing.T) {
	t.Parallel()

	status, body := Translate(errors.New("pq: connection refused on 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Something went very wrong!", body.Error)
	assert.NotContains(t, body.Error, "10.0.0.3")
}
