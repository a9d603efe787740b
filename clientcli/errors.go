package clientcli

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
)

// ErrorKind identifies which of the failure classes an Error belongs to.
type ErrorKind int

const (
	// KindAPI is a request the service answered with a non-2xx status.
	KindAPI ErrorKind = iota + 1
	// KindTransport is a request that got no HTTP response at all.
	KindTransport
	// KindPath is a destination or source path rejected before any request was sent.
	KindPath
	// KindDecode is a success response whose body did not have the expected shape.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindTransport:
		return "transport"
	case KindPath:
		return "path"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by Client operations.
// Only the fields relevant to Kind are set.
type Error struct {
	Kind ErrorKind

	// StatusCode and Message are set for KindAPI. Message may be empty
	// when the service's error body could not be decoded.
	StatusCode int
	Message    string

	// Path is set for KindPath.
	Path string

	// Err is the underlying cause for KindTransport, KindPath and KindDecode, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAPI:
		return strconv.Itoa(e.StatusCode) + ": " + e.Message
	case KindTransport:
		return e.Message
	case KindPath:
		return "path " + strconv.Quote(e.Path) + " is invalid"
	case KindDecode:
		if e.Err == nil {
			return "decode response"
		}
		return "decode response: " + e.Err.Error()
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// A target *Error matches when the kinds agree and, if the target carries
// a StatusCode, the status codes agree too.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404 from the service.
func (e *Error) IsNotFound() bool {
	return e.Kind == KindAPI && e.StatusCode == http.StatusNotFound
}

// Sentinel errors for matching with errors.Is.
var (
	// ErrAPI matches every error the service answered with a non-2xx status.
	ErrAPI = &Error{Kind: KindAPI}

	// ErrTransport matches failures where no HTTP response was obtained.
	ErrTransport = &Error{Kind: KindTransport}

	// ErrInvalidPath matches paths rejected locally before a request was sent.
	ErrInvalidPath = &Error{Kind: KindPath}

	// ErrDecode matches success responses with a malformed body.
	ErrDecode = &Error{Kind: KindDecode}

	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &Error{Kind: KindAPI, StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the API key is missing or wrong (401).
	ErrUnauthorized = &Error{Kind: KindAPI, StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the request is not permitted (403).
	ErrForbidden = &Error{Kind: KindAPI, StatusCode: http.StatusForbidden}
)

func pathError(path string, cause error) *Error {
	return &Error{Kind: KindPath, Path: path, Err: cause}
}

// requestError reports a request that could not be built, such as one
// aimed at a malformed endpoint. Nothing was sent, so it counts as a
// transport failure.
func requestError(cause error) *Error {
	return &Error{Kind: KindTransport, Message: "create request: " + cause.Error(), Err: cause}
}

func decodeError(cause error) *Error {
	return &Error{Kind: KindDecode, Err: cause}
}

// normalize maps the outcome of one HTTP exchange onto the Error type.
// It returns nil for a 2xx response. The caller still owns resp.Body.
func normalize(resp *http.Response, err error) error {
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return parseServerError(resp.StatusCode, resp.Body)
}

// parseServerError extracts the service's message from an error response.
// An unreadable body still yields an API error carrying the status.
func parseServerError(statusCode int, body io.Reader) *Error {
	apiErr := &Error{Kind: KindAPI, StatusCode: statusCode}

	var res errorResponse
	if err := json.NewDecoder(body).Decode(&res); err == nil {
		apiErr.Message = res.Message
	}
	return apiErr
}

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrAPIKeyRequired = errors.New("api key is required")
	ErrConfigRequired = errors.New("config is required")
)
