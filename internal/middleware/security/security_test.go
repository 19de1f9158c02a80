package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeadersMiddleware(t *testing.T) {
	m := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for name, value := range want {
		if got := rr.Header().Get(name); got != value {
			t.Errorf("header %s = %q, want %q", name, got, value)
		}
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plain HTTP response: %q", got)
	}
}

func TestHeadersMiddlewareHSTSOverTLS(t *testing.T) {
	m := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "https://example.com/api/expenses", nil)
	r.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, r)

	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains; preload" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *http.Request
		suspect bool
	}{
		{
			name:    "normal api request",
			build:   func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/expenses?year=2025", nil) },
			suspect: false,
		},
		{
			name:    "curl is a legitimate client",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/api/expenses", nil)
				r.Header.Set("User-Agent", "curl/8.5.0")
				return r
			},
			suspect: false,
		},
		{
			name:    "path traversal",
			build:   func() *http.Request { return httptest.NewRequest(http.MethodGet, "/api/../../etc/passwd", nil) },
			suspect: true,
		},
		{
			name:    "wordpress probe",
			build:   func() *http.Request { return httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil) },
			suspect: true,
		},
		{
			name: "sql injection in query",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/api/expenses?year=1+union+select+1", nil)
			},
			suspect: true,
		},
		{
			name: "scanner user agent",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
				r.Header.Set("User-Agent", "sqlmap/1.7")
				return r
			},
			suspect: true,
		},
		{
			name:    "trace method",
			build:   func() *http.Request { return httptest.NewRequest("TRACE", "/api/expenses", nil) },
			suspect: true,
		},
		{
			name: "too many forwarding hops",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
				r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
				return r
			},
			suspect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			if got := d.DetectSuspiciousRequest(tt.build()); got != tt.suspect {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.suspect)
			}
			metrics := d.GetMetrics()
			wantCount := int64(0)
			if tt.suspect {
				wantCount = 1
			}
			if metrics.SuspiciousRequests != wantCount {
				t.Errorf("SuspiciousRequests = %d, want %d", metrics.SuspiciousRequests, wantCount)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:52110",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy forwards client",
			remoteAddr: "127.0.0.1:8080",
			xff:        "203.0.113.7, 10.0.0.1",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted peer cannot forward",
			remoteAddr: "203.0.113.9:1000",
			xff:        "1.2.3.4",
			want:       "203.0.113.9",
		},
		{
			name:       "invalid forwarded falls back to real ip",
			remoteAddr: "127.0.0.1:8080",
			xff:        "not-an-ip",
			xri:        "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "all forwarded invalid falls back to peer",
			remoteAddr: "192.168.1.10:443",
			xff:        "nope",
			xri:        "also-nope",
			want:       "192.168.1.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractClientIPCountsInvalidAttempts(t *testing.T) {
	d := NewDetector()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:9000"
	r.Header.Set("X-Forwarded-For", "garbage")
	r.Header.Set("X-Real-IP", "more garbage")

	d.ExtractClientIP(r)

	if got := d.GetMetrics().InvalidIPAttempts; got != 2 {
		t.Errorf("InvalidIPAttempts = %d, want 2", got)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "100.64.0.1:443"
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := d.ExtractClientIP(r); got != "203.0.113.7" {
		t.Errorf("ExtractClientIP() = %q, want forwarded client after trusting proxy", got)
	}

	if err := d.AddTrustedProxy("bogus"); err == nil {
		t.Error("expected error for invalid CIDR")
	}
}
