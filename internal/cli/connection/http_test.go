package connection

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		name       string
		server     string
		wantPrefix string
	}{
		{"with http prefix", "http://localhost:8000", "http://localhost:8000"},
		{"with https prefix", "https://localhost:8000", "https://localhost:8000"},
		{"without prefix", "localhost:8000", "http://localhost:8000"},
		{"trailing slash", "http://api.example.com/", "http://api.example.com"},
		{"surrounding space", "  127.0.0.1:8000 ", "http://127.0.0.1:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHTTPClient(tt.server, 0)
			if client.BaseURL() != tt.wantPrefix {
				t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), tt.wantPrefix)
			}
			if client.client.Timeout != DefaultTimeout {
				t.Errorf("Timeout = %v, want %v", client.client.Timeout, DefaultTimeout)
			}
		})
	}
}

func TestHTTPClient_Methods(t *testing.T) {
	type seen struct {
		method, path, contentType, userAgent, body string
	}
	var got seen

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		got = seen{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			userAgent:   r.Header.Get("User-Agent"),
			body:        string(data),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() (*http.Response, error)
		want seen
	}{
		{
			name: "get",
			call: func() (*http.Response, error) { return client.Get(ctx, "/api/budgets") },
			want: seen{method: "GET", path: "/api/budgets"},
		},
		{
			name: "post struct",
			call: func() (*http.Response, error) {
				return client.Post(ctx, "/api/budgets", map[string]any{"name": "Trip"})
			},
			want: seen{method: "POST", path: "/api/budgets", contentType: "application/json", body: `{"name":"Trip"}`},
		},
		{
			name: "put raw",
			call: func() (*http.Response, error) {
				return client.Put(ctx, "/api/budgets/abc", json.RawMessage(`{"state":1.50}`))
			},
			want: seen{method: "PUT", path: "/api/budgets/abc", contentType: "application/json", body: `{"state":1.50}`},
		},
		{
			name: "delete",
			call: func() (*http.Response, error) { return client.Delete(ctx, "/api/budgets/abc") },
			want: seen{method: "DELETE", path: "/api/budgets/abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tt.call()
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			tt.want.userAgent = "presupuesto-cli/1.0"
			if got != tt.want {
				t.Errorf("server saw %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHTTPClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewHTTPClient(url, time.Second)
	if _, err := client.Get(context.Background(), "/api/health"); err == nil {
		t.Error("expected error from closed server")
	}
}

func newResponse(status int, header http.Header, body string) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponse_Success(t *testing.T) {
	var result struct {
		Status string `json:"status"`
	}
	if err := ParseResponse(newResponse(200, nil, `{"status":"ok"}`), &result); err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if result.Status != "ok" {
		t.Errorf("Status = %q", result.Status)
	}

	if err := ParseResponse(newResponse(204, nil, ``), nil); err != nil {
		t.Errorf("nil target: %v", err)
	}

	if err := ParseResponse(newResponse(200, nil, `not json`), &result); err == nil {
		t.Error("expected decode error")
	}
}

func TestParseResponse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     http.Header
		body       string
		wantCode   string
		wantDetail string
		wantText   string
	}{
		{
			name:       "not found",
			status:     404,
			body:       `{"code":"PB-BUDG-4040","message":"budget not found","detail":"Presupuesto no encontrado","request_id":"r1"}`,
			wantCode:   "PB-BUDG-4040",
			wantDetail: "Presupuesto no encontrado",
			wantText:   "[PB-BUDG-4040] budget not found: Presupuesto no encontrado",
		},
		{
			name:       "field errors",
			status:     422,
			body:       `{"code":"PB-ARG-4220","message":"validation failed","detail":[{"loc":["body","timestamp"],"msg":"value is not a valid 64-bit integer","type":"int_type"},{"loc":["body","state"],"msg":"field required","type":"missing"}]}`,
			wantCode:   "PB-ARG-4220",
			wantDetail: "body.timestamp: value is not a valid 64-bit integer; body.state: field required",
		},
		{
			name:     "no body, header code",
			status:   503,
			header:   http.Header{"X-Error-Code": []string{"PB-SYS-5030"}},
			wantCode: "PB-SYS-5030",
			wantText: "[PB-SYS-5030] request failed with status 503",
		},
		{
			name:     "plain text body",
			status:   405,
			body:     "Method Not Allowed\n",
			wantText: "request failed with status 405",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponse(newResponse(tt.status, tt.header, tt.body), nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
			if got := apiErr.DetailText(); got != tt.wantDetail {
				t.Errorf("DetailText() = %q, want %q", got, tt.wantDetail)
			}
			if tt.wantText != "" && apiErr.Error() != tt.wantText {
				t.Errorf("Error() = %q, want %q", apiErr.Error(), tt.wantText)
			}
		})
	}
}

func TestHTTPClient_WithTLSConfig(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	if _, err := NewHTTPClient(server.URL, time.Second).Get(context.Background(), "/"); err == nil {
		t.Error("default client should not trust the test certificate")
	}

	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())
	client := NewHTTPClient(server.URL, time.Second, WithTLSConfig(&tls.Config{RootCAs: pool}))

	resp, err := client.Get(context.Background(), "/")
	if err != nil {
		t.Fatalf("Get over TLS: %v", err)
	}
	var result struct {
		Status string `json:"status"`
	}
	if err := ParseResponse(resp, &result); err != nil || result.Status != "ok" {
		t.Errorf("result = %+v, err = %v", result, err)
	}
}
