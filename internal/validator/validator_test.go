package validator

import (
	"errors"
	"testing"

	"github.com/scuttlekit/scuttle/internal/fetch"
)

func TestDefaultPolicyCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		policy     *DefaultPolicy
		resp       *fetch.Response
		wantReason string
	}{
		{
			name:   "accepts 200 with body",
			policy: NewDefaultPolicy(),
			resp:   &fetch.Response{Status: 200, Body: "<html></html>"},
		},
		{
			name:   "accepts top of 2xx range",
			policy: NewDefaultPolicy(),
			resp:   &fetch.Response{Status: 299, Body: "x"},
		},
		{
			name:       "rejects 404",
			policy:     NewDefaultPolicy(),
			resp:       &fetch.Response{Status: 404, Body: "not found"},
			wantReason: "http status 404",
		},
		{
			name:       "rejects 500",
			policy:     NewDefaultPolicy(),
			resp:       &fetch.Response{Status: 500, Body: "boom"},
			wantReason: "http status 500",
		},
		{
			name:       "rejects empty body",
			policy:     NewDefaultPolicy(),
			resp:       &fetch.Response{Status: 200},
			wantReason: "empty response body",
		},
		{
			name:       "rejects oversized body",
			policy:     &DefaultPolicy{MaxBodySize: 4},
			resp:       &fetch.Response{Status: 200, Body: "12345"},
			wantReason: "body size 5 exceeds limit 4",
		},
		{
			name:   "content type prefix match passes",
			policy: &DefaultPolicy{AllowedContentTypes: []string{"text/html"}},
			resp: &fetch.Response{
				Status:  200,
				Body:    "<html></html>",
				Headers: map[string][]string{"Content-Type": {"text/html; charset=utf-8"}},
			},
		},
		{
			name:   "content type mismatch rejects",
			policy: &DefaultPolicy{AllowedContentTypes: []string{"text/html", "application/json"}},
			resp: &fetch.Response{
				Status:  200,
				Body:    "%PDF-1.4",
				Headers: map[string][]string{"Content-Type": {"application/pdf"}},
			},
			wantReason: `content type "application/pdf" not allowed`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.policy.Check(tt.resp)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("Check() = %v, want accept", err)
				}
				return
			}

			var rejection *Rejection
			if !errors.As(err, &rejection) {
				t.Fatalf("Check() = %v, want *Rejection", err)
			}
			if rejection.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", rejection.Reason, tt.wantReason)
			}
		})
	}
}
