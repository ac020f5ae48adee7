package sensibo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/muurk/smartac/internal/urls"
)

// ErrorType is the closed set of failures surfaced to callers.
type ErrorType int

const (
	// ErrTypeUnauthorized indicates the server rejected the API key
	ErrTypeUnauthorized ErrorType = iota
	// ErrTypeParams indicates outgoing parameters could not be built; the request never left the process
	ErrTypeParams
	// ErrTypeDecode indicates the response did not match the expected structure
	ErrTypeDecode
	// ErrTypeMessage covers every other failure (timeouts, connectivity, non-2xx statuses)
	ErrTypeMessage
)

// NetworkErrorSubtype narrows down an ErrTypeMessage failure that happened
// below HTTP.
type NetworkErrorSubtype int

const (
	// NetworkErrorNone is the zero value: a response was received, or the
	// failure was not a network one.
	NetworkErrorNone NetworkErrorSubtype = iota
	NetworkErrorGeneral
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
	NetworkErrorCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeUnauthorized:
		return "Unauthorized"
	case ErrTypeParams:
		return "Params Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeMessage:
		return "Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError is returned by every Transport, decoder and Client operation.
type APIError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code, 0 when no response was received
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // Set for failures below HTTP
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a failure from the HTTP client to an
// ErrTypeMessage error with the most specific subtype it can find.
func ClassifyNetworkError(err error) *APIError {
	if err == nil {
		return nil
	}

	newErr := func(subtype NetworkErrorSubtype, message string) *APIError {
		return &APIError{
			Type:           ErrTypeMessage,
			Message:        message,
			Err:            err,
			NetworkSubtype: subtype,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newErr(NetworkErrorTimeout, "Request timed out")
	}

	if errors.Is(err, context.Canceled) {
		return newErr(NetworkErrorCanceled, "Request canceled")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newErr(NetworkErrorDNS, fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name))
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return newErr(NetworkErrorConnectionRefused, "Server refused connection")
	case errors.Is(err, syscall.EHOSTUNREACH):
		return newErr(NetworkErrorHostUnreachable, "Host unreachable")
	case errors.Is(err, syscall.ENETUNREACH):
		return newErr(NetworkErrorNetworkUnreachable, "Network unreachable")
	}

	return newErr(NetworkErrorGeneral, "Network error occurred")
}

// NewNetworkError creates a classified network error with a custom message
func NewNetworkError(message string, err error) *APIError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &APIError{Type: ErrTypeMessage, Message: message, NetworkSubtype: NetworkErrorGeneral}
	}
	if classified.NetworkSubtype != NetworkErrorGeneral {
		message = classified.Message + ": " + message
	}
	classified.Message = message
	return classified
}

// NewUnauthorizedError creates an error for a rejected API key
func NewUnauthorizedError(statusCode int, message string) *APIError {
	return &APIError{
		Type:       ErrTypeUnauthorized,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewHTTPError creates an error for a non-2xx status
func NewHTTPError(statusCode int, message string) *APIError {
	return &APIError{
		Type:       ErrTypeMessage,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParamsError creates an error for parameters that could not be sent
func NewParamsError(message string, err error) *APIError {
	return &APIError{
		Type:    ErrTypeParams,
		Message: message,
		Err:     err,
	}
}

// NewDecodeError creates an error for a response that did not decode
func NewDecodeError(message string, err error) *APIError {
	return &APIError{
		Type:    ErrTypeDecode,
		Message: message,
		Err:     err,
	}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is an ErrTypeUnauthorized error
func IsUnauthorized(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeUnauthorized
}

// IsParamsError reports whether err is an ErrTypeParams error
func IsParamsError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeParams
}

// IsDecodeError reports whether err is an ErrTypeDecode error
func IsDecodeError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeDecode
}

// IsErrorMessage reports whether err is an ErrTypeMessage error
func IsErrorMessage(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeMessage
}

// IsTimeout reports whether err is a request that exceeded its deadline
func IsTimeout(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.NetworkSubtype == NetworkErrorTimeout
}

// ShortMessage returns the text shown in an acknowledgement dialog.
func ShortMessage(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeUnauthorized:
		return "unauthorized user"
	case ErrTypeParams:
		return "failed to send params"
	case ErrTypeDecode:
		return "failed to decode object"
	}

	switch apiErr.NetworkSubtype {
	case NetworkErrorNone:
		return apiErr.Message
	case NetworkErrorTimeout:
		return "The request timed out"
	case NetworkErrorCanceled:
		return "The request was canceled"
	case NetworkErrorDNS:
		return "Cannot resolve the Sensibo server"
	case NetworkErrorConnectionRefused:
		return "Server refused connection"
	case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
		return "Network unreachable - check your connection"
	case NetworkErrorGeneral:
		return "Network error - check connection"
	}

	return apiErr.Message
}

// TroubleshootingHint returns user-friendly advice for an error
func TroubleshootingHint(err error) string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeUnauthorized:
		return strings.Join([]string{
			"The Sensibo server rejected the API key.",
			"Troubleshooting:",
			"  • Check the key with: smartac config show",
			"  • Create a new key at " + urls.APIKeys,
			"  • SMARTAC_API_KEY overrides the key in the config file",
		}, "\n")

	case ErrTypeParams:
		return "The request could not be built. Check the property name and value."

	case ErrTypeDecode:
		return strings.Join([]string{
			"The server response did not have the expected shape.",
			"Troubleshooting:",
			"  • Run with SMARTAC_LOG_LEVEL=debug to see the raw response",
			"  • Compare against the API reference at " + urls.APIReference,
		}, "\n")
	}

	switch apiErr.NetworkSubtype {
	case NetworkErrorNone:
		// status-based hints below
	case NetworkErrorTimeout:
		return strings.Join([]string{
			"The Sensibo server did not respond in time.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Check the service status at " + urls.StatusPage,
			"  • Try again in a moment",
		}, "\n")

	case NetworkErrorDNS, NetworkErrorConnectionRefused, NetworkErrorHostUnreachable,
		NetworkErrorNetworkUnreachable, NetworkErrorGeneral:
		return strings.Join([]string{
			"Could not reach the Sensibo server.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Verify base_url in the config file if you changed it",
			"  • Check the service status at " + urls.StatusPage,
		}, "\n")

	case NetworkErrorCanceled:
		return "The request was canceled before it completed."
	}

	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		return "The pod was not found. List your pods with: smartac devices"
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return "The Sensibo API is rate limiting this key. Wait a minute and try again."
	case apiErr.StatusCode >= 500:
		return strings.Join([]string{
			fmt.Sprintf("The Sensibo server returned an error (HTTP %d).", apiErr.StatusCode),
			"Check the service status at " + urls.StatusPage,
		}, "\n")
	case apiErr.StatusCode != 0:
		return fmt.Sprintf("The server returned HTTP error %d. Check the request parameters.", apiErr.StatusCode)
	}

	return "An error occurred. Please check the error message for details."
}

// redactURLError strips the API key from a *url.Error so it never ends up in
// error text or logs.
func redactURLError(err error, redact func(string) string) {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redact(urlErr.URL)
	}
}
