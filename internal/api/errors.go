package api

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"

	"github.com/datavault/dvcli/internal/models"
)

// Sentinel errors for the user-input and state classes of the taxonomy.
var (
	ErrNotConnected    = errors.New("not connected: run login first")
	ErrInvalidPath     = errors.New("invalid path")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidAccount  = errors.New("invalid account")
	ErrNodeNotFound    = errors.New("node not found")
)

// HTTPError is a non-2xx response from the control plane, carrying the
// decoded JSON error body when one was present.
type HTTPError struct {
	StatusCode int
	Code       int
	Message    string
	DebugInfo  string
	ErrorCode  int
}

func (e *HTTPError) Error() string {
	if e.DebugInfo != "" {
		return fmt.Sprintf("API error %d: %s (%s)", e.StatusCode, e.Message, e.DebugInfo)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// AuthError is an OAuth error response from the token endpoint.
type AuthError struct {
	Err         string `json:"error"`
	Description string `json:"error_description"`
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("auth error: %s: %s", e.Err, e.Description)
	}
	return fmt.Sprintf("auth error: %s", e.Err)
}

// S3Error is a non-2xx response from a presigned S3 URL, decoded from the
// XML <Error> body.
type S3Error struct {
	StatusCode   int
	Code         string `xml:"Code"`
	Message      string `xml:"Message"`
	RequestID    string `xml:"RequestId"`
	HostID       string `xml:"HostId"`
	ArgumentName string `xml:"ArgumentName"`
}

func (e *S3Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("S3 error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("S3 error %d", e.StatusCode)
}

// DecodeAPIError reads and decodes the error body of a non-2xx API response.
// A body that fails to decode still yields an HTTPError with the raw text as
// the message, never a panic or a bare decode error.
func DecodeAPIError(resp *nethttp.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body models.APIErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && (body.Message != "" || body.Code != 0) {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Code:       body.Code,
			Message:    body.Message,
			DebugInfo:  body.DebugInfo,
			ErrorCode:  body.ErrorCode,
		}
	}

	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    string(raw),
	}
}

// DecodeS3Error decodes the XML error body of a failed presigned request.
func DecodeS3Error(statusCode int, body []byte) error {
	s3err := &S3Error{StatusCode: statusCode}
	if err := xml.Unmarshal(body, s3err); err != nil {
		s3err.Message = string(body)
	}
	return s3err
}

// IsStatus reports whether err is an HTTPError with the given status code.
func IsStatus(err error, status int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == status
}

// IsConflict reports whether err is a 409 from the API, e.g. a folder that
// already exists.
func IsConflict(err error) bool {
	return IsStatus(err, nethttp.StatusConflict)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return IsStatus(err, nethttp.StatusNotFound)
}
