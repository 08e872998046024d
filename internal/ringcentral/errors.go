package ringcentral

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrorKind classifies failures surfaced by the client.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRateLimited    ErrorKind = "rate_limited"
	KindNotFound       ErrorKind = "not_found"
	KindClient         ErrorKind = "client"
	KindServer         ErrorKind = "server"
)

// APIError is a non-success HTTP response from the platform.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string // provider error code, e.g. "CMN-102"
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// Kind classifies the error by status code.
func (e *APIError) Kind() ErrorKind {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return KindAuthentication
	case e.StatusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case e.StatusCode == http.StatusNotFound:
		return KindNotFound
	case e.StatusCode >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// errorBody covers both the REST error envelope and the OAuth one.
type errorBody struct {
	ErrorCode        string `json:"errorCode"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Errors           []struct {
		ErrorCode string `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"errors"`
}

func newAPIError(req *http.Request, resp *http.Response, now time.Time) *APIError {
	apiErr := &APIError{
		Method:     req.Method,
		Path:       req.URL.Path,
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), now),
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.ErrorCode
		apiErr.Message = body.Message
		if apiErr.Code == "" && len(body.Errors) > 0 {
			apiErr.Code = body.Errors[0].ErrorCode
			apiErr.Message = body.Errors[0].Message
		}
		if apiErr.Code == "" {
			apiErr.Code = body.Error
			apiErr.Message = body.ErrorDescription
		}
	}
	if apiErr.Message == "" && apiErr.Code == "" {
		apiErr.Message = strings.TrimSpace(string(data))
		if len(apiErr.Message) > 200 {
			apiErr.Message = apiErr.Message[:200]
		}
	}
	return apiErr
}

// parseRetryAfter reads a Retry-After header given either as seconds or as an
// HTTP date. Zero means absent or unparseable.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func apiErrorKind(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind(), true
	}
	return "", false
}

// IsAuthentication reports whether err means the credentials were rejected,
// either by the token endpoint or by an API call answering 401.
func IsAuthentication(err error) bool {
	if kind, ok := apiErrorKind(err); ok {
		return kind == KindAuthentication
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return retrieveErr.Response == nil || retrieveErr.Response.StatusCode < 500
	}
	return false
}

// IsRateLimited reports whether err is an HTTP 429.
func IsRateLimited(err error) bool {
	kind, ok := apiErrorKind(err)
	return ok && kind == KindRateLimited
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	kind, ok := apiErrorKind(err)
	return ok && kind == KindNotFound
}

// IsTransport reports whether err came from talking to the platform: an HTTP
// error response or a network failure. Authentication failures are excluded.
func IsTransport(err error) bool {
	if IsAuthentication(err) {
		return false
	}
	if _, ok := apiErrorKind(err); ok {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// retryable reports whether the same call may succeed when repeated.
func retryable(err error) bool {
	if IsAuthentication(err) {
		return false
	}
	if kind, ok := apiErrorKind(err); ok {
		return kind == KindRateLimited || kind == KindServer
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
