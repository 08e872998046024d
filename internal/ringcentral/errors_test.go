package ringcentral

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2023, 10, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "seconds", value: "30", want: 30 * time.Second},
		{name: "http date", value: now.Add(90 * time.Second).Format(http.TimeFormat), want: 90 * time.Second},
		{name: "date in the past", value: now.Add(-time.Minute).Format(http.TimeFormat), want: 0},
		{name: "empty", value: "", want: 0},
		{name: "garbage", value: "soon", want: 0},
		{name: "negative", value: "-5", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestNewAPIErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{name: "rest envelope", body: `{"errorCode":"CMN-102","message":"not found"}`, wantCode: "CMN-102", wantMsg: "not found"},
		{name: "nested errors", body: `{"errors":[{"errorCode":"CMN-101","message":"bad param"}]}`, wantCode: "CMN-101", wantMsg: "bad param"},
		{name: "oauth envelope", body: `{"error":"invalid_client","error_description":"bad secret"}`, wantCode: "invalid_client", wantMsg: "bad secret"},
		{name: "plain text", body: "Service Unavailable", wantCode: "", wantMsg: "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "https://example.test"+CallLogPath, nil)
			resp := &http.Response{
				StatusCode: http.StatusBadRequest,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader(tt.body)),
			}
			apiErr := newAPIError(req, resp, time.Now())
			if apiErr.Code != tt.wantCode || apiErr.Message != tt.wantMsg {
				t.Errorf("got code=%q msg=%q, want code=%q msg=%q", apiErr.Code, apiErr.Message, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	netErr := &url.Error{Op: "Get", URL: "https://example.test", Err: errors.New("connection reset")}
	tokenErr := &url.Error{Op: "Get", URL: "https://example.test", Err: &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
	}}

	tests := []struct {
		name      string
		err       error
		auth      bool
		transport bool
		retry     bool
	}{
		{name: "401", err: &APIError{StatusCode: 401}, auth: true},
		{name: "403", err: &APIError{StatusCode: 403}, transport: true},
		{name: "404", err: &APIError{StatusCode: 404}, transport: true},
		{name: "429", err: fmt.Errorf("wrapped: %w", &APIError{StatusCode: 429}), transport: true, retry: true},
		{name: "503", err: &APIError{StatusCode: 503}, transport: true, retry: true},
		{name: "network", err: netErr, transport: true, retry: true},
		{name: "token rejected", err: tokenErr, auth: true},
		{name: "plain", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthentication(tt.err); got != tt.auth {
				t.Errorf("IsAuthentication = %v, want %v", got, tt.auth)
			}
			if got := IsTransport(tt.err); got != tt.transport {
				t.Errorf("IsTransport = %v, want %v", got, tt.transport)
			}
			if got := retryable(tt.err); got != tt.retry {
				t.Errorf("retryable = %v, want %v", got, tt.retry)
			}
		})
	}
}
