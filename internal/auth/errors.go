package auth

import "errors"

// Виды ошибок аутентификации. Наружу хендлеры отдают только общий 401/403,
// конкретный вид остаётся в серверных логах.
var (
	ErrMalformedPayload = errors.New("malformed init data")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidSignature = errors.New("invalid init data signature")
	ErrStalePayload     = errors.New("init data expired")
	ErrAccessDenied     = errors.New("access denied")
	ErrTokenMissing     = errors.New("token required")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrConfig           = errors.New("auth misconfigured")
)
