package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"account_service/internal/auth"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{Status: StatusOK}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "eqfield":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s does not match", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Error(strings.Join(errMsgs, ", "))
}

// Translate is the single boundary between the core's error taxonomy and
// HTTP. Every auth.ErrorKind maps to a status here; anything that is not an
// operational core error collapses to a generic 500 so internals are never
// echoed to a client.
func Translate(err error) (int, Response) {
	var coreErr *auth.Error
	if !errors.As(err, &coreErr) {
		return http.StatusInternalServerError, Error("Something went very wrong!")
	}

	switch coreErr.Kind {
	case auth.KindValidation, auth.KindResetTokenInvalid:
		return http.StatusBadRequest, Error(coreErr.Message)
	case auth.KindNotLoggedIn,
		auth.KindInvalidToken,
		auth.KindTokenExpired,
		auth.KindBadCredentials,
		auth.KindPasswordChanged,
		auth.KindStaleAccount:
		return http.StatusUnauthorized, Error(coreErr.Message)
	case auth.KindForbidden:
		return http.StatusForbidden, Error(coreErr.Message)
	case auth.KindNotFound:
		return http.StatusNotFound, Error(coreErr.Message)
	case auth.KindDelivery, auth.KindInternal:
		return http.StatusInternalServerError, Error(coreErr.Message)
	default:
		return http.StatusInternalServerError, Error("Something went very wrong!")
	}
}

// * SetSessionCookie дублирует сессионный токен в http-only cookie
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
