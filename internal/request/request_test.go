package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/benvon/vizflow/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr strips port", nil, "10.0.0.1:12345", "10.0.0.1"},
		{"remote addr without port", nil, "10.0.0.1", "10.0.0.1"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestClaimsFromContext(t *testing.T) {
	t.Parallel()
	c := &models.JWTClaims{Sub: "user-1", Email: "a@b.c"}
	r := httptest.NewRequest("GET", "/", nil)
	r = r.WithContext(WithClaims(r.Context(), c))
	if got := ClaimsFromContext(r); got != c {
		t.Errorf("ClaimsFromContext() = %p, want %p", got, c)
	}
}

func TestClaimsFromContext_Missing(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest("GET", "/", nil)
	if got := ClaimsFromContext(r); got != nil {
		t.Errorf("ClaimsFromContext() = %+v, want nil", got)
	}
}

func TestClaimsFromContext_WrongType(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), ClaimsContextKey(), "not claims")
	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	if got := ClaimsFromContext(r); got != nil {
		t.Errorf("ClaimsFromContext() = %+v, want nil when wrong type", got)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	if got := ID(context.Background()); got != "" {
		t.Errorf("ID() = %q, want empty", got)
	}
	if got := ID(WithID(context.Background(), "abc")); got != "abc" {
		t.Errorf("ID() = %q, want abc", got)
	}
}
