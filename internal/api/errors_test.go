package api

import (
	"bytes"
	"io"
	nethttp "net/http"
	"testing"
)

func errResponse(status int, body string) *nethttp.Response {
	return &nethttp.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestDecodeAPIErrorJSONBody(t *testing.T) {
	resp := errResponse(403, `{"code":403,"message":"Access denied","debugInfo":"missing manage permission","errorCode":-70020}`)

	err := DecodeAPIError(resp)
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("err = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != 403 || httpErr.Message != "Access denied" {
		t.Errorf("decoded = %+v", httpErr)
	}
	if httpErr.DebugInfo != "missing manage permission" || httpErr.ErrorCode != -70020 {
		t.Errorf("debug fields = %+v", httpErr)
	}
}

func TestDecodeAPIErrorMalformedBody(t *testing.T) {
	resp := errResponse(502, "<html>bad gateway</html>")

	err := DecodeAPIError(resp)
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("err = %T, want *HTTPError", err)
	}
	if httpErr.StatusCode != 502 {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
	if httpErr.Message == "" {
		t.Error("raw body not surfaced as message")
	}
}

func TestDecodeS3Error(t *testing.T) {
	body := []byte(`<?xml version="1.0"?><Error><Code>ExpiredToken</Code><Message>The provided token has expired.</Message><RequestId>ABC123</RequestId><HostId>host</HostId></Error>`)

	err := DecodeS3Error(403, body)
	s3err, ok := err.(*S3Error)
	if !ok {
		t.Fatalf("err = %T, want *S3Error", err)
	}
	if s3err.Code != "ExpiredToken" {
		t.Errorf("Code = %q", s3err.Code)
	}
	if s3err.RequestID != "ABC123" {
		t.Errorf("RequestID = %q", s3err.RequestID)
	}
	if s3err.StatusCode != 403 {
		t.Errorf("StatusCode = %d", s3err.StatusCode)
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(&HTTPError{StatusCode: 409}) {
		t.Error("409 not detected as conflict")
	}
	if IsConflict(&HTTPError{StatusCode: 404}) {
		t.Error("404 misdetected as conflict")
	}
	if IsConflict(io.EOF) {
		t.Error("non-HTTP error misdetected as conflict")
	}
}
