package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthService_GetToken(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		statusCode  int
		wantToken   string
		wantErr     bool
		errContains string
	}{
		{
			name:       "success",
			response:   `{"token":"test-token-123"}`,
			statusCode: http.StatusOK,
			wantToken:  "test-token-123",
		},
		{
			name:        "api error - invalid api key",
			response:    `{"error":10,"message":"Invalid API key"}`,
			statusCode:  http.StatusForbidden,
			wantErr:     true,
			errContains: "error 10",
		},
		{
			name:       "empty token",
			response:   `{"token":""}`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if method := q.Get("method"); method != "auth.getToken" {
					t.Errorf("expected method auth.getToken, got %s", method)
				}
				if q.Get("api_sig") == "" {
					t.Error("auth.getToken request must be signed")
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			token, err := client.Auth().GetToken(context.Background())

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("err = %v, want contains %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetToken: %v", err)
			}
			if token.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", token.Token, tt.wantToken)
			}
		})
	}
}

func TestAuthService_GetAuthURL(t *testing.T) {
	client := newTestClient(t, "http://unused")

	got := client.Auth().GetAuthURL("tok")
	want := "https://www.last.fm/api/auth/?api_key=test-api-key&token=tok"
	if got != want {
		t.Errorf("GetAuthURL = %q, want %q", got, want)
	}
}

func TestAuthService_GetSession(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantKey    string
		wantUser   string
		wantErr    bool
	}{
		{
			name:       "success",
			response:   `{"session":{"name":"alice","key":"session-key-123","subscriber":0}}`,
			statusCode: http.StatusOK,
			wantKey:    "session-key-123",
			wantUser:   "alice",
		},
		{
			name:       "unauthorized token",
			response:   `{"error":14,"message":"Unauthorized Token"}`,
			statusCode: http.StatusForbidden,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if method := q.Get("method"); method != "auth.getSession" {
					t.Errorf("expected method auth.getSession, got %s", method)
				}
				if token := q.Get("token"); token != "tok" {
					t.Errorf("expected token tok, got %s", token)
				}
				if q.Get("api_sig") == "" {
					t.Error("auth.getSession request must be signed")
				}

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			session, err := client.Auth().GetSession(context.Background(), "tok")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetSession: %v", err)
			}
			if session.Key != tt.wantKey {
				t.Errorf("key = %q, want %q", session.Key, tt.wantKey)
			}
			if session.Username != tt.wantUser {
				t.Errorf("username = %q, want %q", session.Username, tt.wantUser)
			}
		})
	}
}
