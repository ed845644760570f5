package auth

// ErrorKind is the discriminant the HTTP boundary switches on. Every error
// the core hands out is one of these kinds; anything else is treated as an
// internal failure and never echoed to a client.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotLoggedIn
	KindInvalidToken
	KindTokenExpired
	KindBadCredentials
	KindPasswordChanged
	KindStaleAccount
	KindForbidden
	KindNotFound
	KindResetTokenInvalid
	KindDelivery
	KindInternal
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// * Is сравнивает ошибки по виду, чтобы работал errors.Is с обернутыми ошибками
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.Kind == e.Kind
}

var (
	ErrNotLoggedIn       = &Error{Kind: KindNotLoggedIn, Message: "you are not logged in"}
	ErrInvalidToken      = &Error{Kind: KindInvalidToken, Message: "invalid token, please log in again"}
	ErrTokenExpired      = &Error{Kind: KindTokenExpired, Message: "your token has expired, please log in again"}
	ErrBadCredentials    = &Error{Kind: KindBadCredentials, Message: "incorrect email or password"}
	ErrPasswordChanged   = &Error{Kind: KindPasswordChanged, Message: "password was recently changed, please log in again"}
	ErrStaleAccount      = &Error{Kind: KindStaleAccount, Message: "the account belonging to this token no longer exists"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action"}
	ErrAccountExists     = &Error{Kind: KindValidation, Message: "an account with this email already exists"}
	ErrAccountNotFound   = &Error{Kind: KindNotFound, Message: "no account found"}
	ErrResetTokenInvalid = &Error{Kind: KindResetTokenInvalid, Message: "reset token is invalid or expired"}
	ErrDeliveryFailed    = &Error{Kind: KindDelivery, Message: "failed to send email, please try again later"}
)
