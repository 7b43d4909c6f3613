// Package errors provides structured, coded errors shared by the login service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors abort startup.
	CodeConfigMissingCredentials Code = "CONFIG_MISSING_CREDENTIALS"
	CodeConfigInvalid            Code = "CONFIG_INVALID"

	// OAuth callback errors are scoped to a single request.
	CodeProviderDenied      Code = "OAUTH_PROVIDER_DENIED"
	CodeCallbackMissingCode Code = "OAUTH_CALLBACK_MISSING_CODE"
	CodeTokenExchangeFailed Code = "OAUTH_TOKEN_EXCHANGE_FAILED"
	CodeProfileFetchFailed  Code = "OAUTH_PROFILE_FETCH_FAILED"

	// Session errors
	CodeSessionUnavailable Code = "SESSION_UNAVAILABLE"
)

// HTTPStatus maps a code to the status used when the error ends a request.
func (c Code) HTTPStatus() int {
	switch c {
	// Upstream provider failed or answered with something unusable.
	case CodeTokenExchangeFailed,
		CodeProfileFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the generic text shown to users for a code.
// It never includes provider payloads or tokens.
func (c Code) PublicMessage() string {
	switch c {
	case CodeProviderDenied:
		return "provider denied authorization"
	case CodeCallbackMissingCode:
		return "malformed oauth callback"
	case CodeTokenExchangeFailed:
		return "token exchange failed"
	case CodeProfileFetchFailed:
		return "profile fetch failed"
	case CodeSessionUnavailable:
		return "session unavailable"
	default:
		return "internal server error"
	}
}
