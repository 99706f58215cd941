package errs

import "net/http"

// 业务错误码：1xxx 参数/状态，2xxx 鉴权，3xxx 资源
var (
	ErrArgs             = NewCodeError(1001, "invalid request arguments")
	ErrConflict         = NewCodeError(1002, "resource already exists")
	ErrState            = NewCodeError(1003, "operation not allowed in current state")
	ErrUnauthorized     = NewCodeError(2001, "unauthorized")
	ErrTokenExpired     = NewCodeError(2002, "token expired or invalid")
	ErrForbidden        = NewCodeError(2003, "forbidden")
	ErrEmailNotVerified = NewCodeError(2004, "email not verified")
	ErrNotFound         = NewCodeError(3001, "resource not found")
	ErrInternal         = NewCodeError(5000, "internal error")
)

// HTTPStatus maps a business code to the HTTP status the handlers respond with.
func HTTPStatus(e CodeError) int {
	switch e.Code {
	case ErrArgs.Code, ErrState.Code:
		return http.StatusBadRequest
	case ErrConflict.Code:
		return http.StatusConflict
	case ErrUnauthorized.Code, ErrTokenExpired.Code, ErrEmailNotVerified.Code:
		return http.StatusUnauthorized
	case ErrForbidden.Code:
		return http.StatusForbidden
	case ErrNotFound.Code:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
