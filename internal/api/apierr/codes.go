package apierr

// Stable error codes, grouped by base class. Codes are part of the wire
// contract; never renumber existing entries.
const (
	// Permission denied (403)
	CodeTooManyClientTokens = 101
	CodeTooManyUserTokens   = 102
	CodeNoClientTokenGiven  = 103
	CodeNoUserTokenGiven    = 104
	CodeNoValidClientToken  = 105
	CodeDisabledClientToken = 106
	CodeExpiredClientToken  = 107
	CodeNoValidUserToken    = 108
	CodeDisabledUserToken   = 109
	CodeExpiredUserToken    = 110
	CodeClientNotAuthorized = 111
	CodeUserNotAuthorized   = 112
	CodeMethodNotAllowed    = 113
	CodeInvalidCredentials  = 114
	CodeInvalidSecondFactor = 115

	// Not found (404)
	CodeInvalidEndpointPath = 201
	CodeGroupNotFound       = 202
	CodeEndpointNotFound    = 203
	CodeMissingField        = 204
	CodeInvalidField        = 205
	CodeInvalidPage         = 206
	CodeEntityNotFound      = 207

	// Server (500)
	CodePermissionInvalid = 301
	CodeWrongResponseType = 302
	CodeDataNotAList      = 303
	CodeDataNotABool      = 304
	CodeEndpointAmbiguous = 305
	CodeAccounting        = 306
	CodeStorage           = 307
	CodeConflict          = 308

	// Unclassified (501)
	CodeUnclassified = 999
)

// Credential extraction and policy failures.

func TooManyClientTokens() *Error {
	return newError(KindPermissionDenied, CodeTooManyClientTokens,
		"a client token was supplied in both header and query string")
}

func TooManyUserTokens() *Error {
	return newError(KindPermissionDenied, CodeTooManyUserTokens,
		"a user token was supplied in both header and query string")
}

func NoClientTokenGiven() *Error {
	return newError(KindPermissionDenied, CodeNoClientTokenGiven,
		"this endpoint requires a client token and no user token")
}

func NoUserTokenGiven() *Error {
	return newError(KindPermissionDenied, CodeNoUserTokenGiven,
		"this endpoint requires a user token and no client token")
}

// Authentication failures, ordered existence, enabled state, expiration.

func NoValidClientToken() *Error {
	return newError(KindPermissionDenied, CodeNoValidClientToken, "client token does not exist")
}

func DisabledClientToken() *Error {
	return newError(KindPermissionDenied, CodeDisabledClientToken, "client token is disabled")
}

func ExpiredClientToken() *Error {
	return newError(KindPermissionDenied, CodeExpiredClientToken, "client token is expired")
}

func NoValidUserToken() *Error {
	return newError(KindPermissionDenied, CodeNoValidUserToken, "user token does not exist")
}

func DisabledUserToken() *Error {
	return newError(KindPermissionDenied, CodeDisabledUserToken, "user token is disabled")
}

func ExpiredUserToken() *Error {
	return newError(KindPermissionDenied, CodeExpiredUserToken, "user token is expired")
}

// Authorization failures.

func ClientNotAuthorized(permission string) *Error {
	return newError(KindPermissionDenied, CodeClientNotAuthorized,
		"client token is not authorized for permission %q", permission)
}

func UserNotAuthorized(permission string) *Error {
	return newError(KindPermissionDenied, CodeUserNotAuthorized,
		"user token is not authorized for permission %q", permission)
}

func MethodNotAllowed(method string) *Error {
	return newError(KindPermissionDenied, CodeMethodNotAllowed,
		"HTTP method %q is not allowed for this endpoint", method)
}

func InvalidCredentials() *Error {
	return newError(KindPermissionDenied, CodeInvalidCredentials, "invalid username or password")
}

func InvalidSecondFactor() *Error {
	return newError(KindPermissionDenied, CodeInvalidSecondFactor, "second factor verification failed")
}

// Routing and request validation failures.

func InvalidEndpointPath(path string) *Error {
	return newError(KindNotFound, CodeInvalidEndpointPath, "path %q is not a valid API endpoint", path)
}

func GroupNotFound(group string) *Error {
	return newError(KindNotFound, CodeGroupNotFound, "API group %q does not exist", group)
}

func EndpointNotFound(group, endpoint string) *Error {
	return newError(KindNotFound, CodeEndpointNotFound,
		"API endpoint %q does not exist in group %q", endpoint, group)
}

func MissingField(field string) *Error {
	return newError(KindNotFound, CodeMissingField, "missing required field %q", field)
}

func InvalidField(field, reason string) *Error {
	return newError(KindNotFound, CodeInvalidField, "invalid value for field %q: %s", field, reason)
}

func InvalidPage(page, lastPage int) *Error {
	return newError(KindNotFound, CodeInvalidPage, "page %d should be between 1 and %d", page, lastPage)
}

func EntityNotFound(kind, id string) *Error {
	return newError(KindNotFound, CodeEntityNotFound, "%s %q cannot be found", kind, id)
}

// Server-side misconfiguration and storage failures.

func PermissionInvalid(permission string) *Error {
	return newError(KindServer, CodePermissionInvalid,
		"endpoint declares malformed permission string %q", permission)
}

func WrongResponseType() *Error {
	return newError(KindServer, CodeWrongResponseType, "handler produced an invalid response type")
}

func DataNotAList() *Error {
	return newError(KindServer, CodeDataNotAList, "dataset response data is not a list")
}

func DataNotABool() *Error {
	return newError(KindServer, CodeDataNotABool, "done response data is not a boolean")
}

func EndpointAmbiguousName(group, endpoint string) *Error {
	return newError(KindServer, CodeEndpointAmbiguous,
		"endpoint %q already exists in group %q", endpoint, group)
}

func Accounting(cause error) *Error {
	return newError(KindServer, CodeAccounting, "failed to write accounting entry").WithCause(cause)
}

func Storage(cause error) *Error {
	return newError(KindServer, CodeStorage, "storage failure").WithCause(cause)
}

// Conflict reports a unique-constraint race (two writers creating the same
// grant row). It is retryable, not an authorization fault.
func Conflict(what string) *Error {
	return newError(KindServer, CodeConflict, "conflicting concurrent write on %s, retry the request", what)
}
