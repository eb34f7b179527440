package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid listing: missing type"), false},
		{"429", &StatusError{StatusCode: 429}, true},
		{"503 wrapped", fmt.Errorf("fetch: %w", &StatusError{StatusCode: 503}), true},
		{"404", &StatusError{StatusCode: 404}, false},
		{"net timeout", fmt.Errorf("get: %w", timeoutErr{}), true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"message only", errors.New("dial tcp: lookup feeds.example.org: no such host"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for code, want := range map[int]bool{
		200: false, 400: false, 404: false,
		408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
	} {
		if got := IsRetryableStatus(code); got != want {
			t.Errorf("IsRetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{StatusCode: 502, URL: "https://example.org/a.json"}
	if err.Error() != "http 502 from https://example.org/a.json" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
