package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendInvite(t *testing.T) {
	var received resendEmail
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "noreply@example.com", "https://pettrack.test")
	transport := &rewriteTransport{base: http.DefaultTransport, target: server.URL}
	client.httpClient = &http.Client{Transport: transport}

	err := client.SendInvite("friend@example.com", "abc123", "The Petersons", "Alice")
	if err != nil {
		t.Fatalf("send invite: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization = %q, want %q", gotAuth, "Bearer test-key")
	}
	if len(received.To) != 1 || received.To[0] != "friend@example.com" {
		t.Errorf("to = %v, want friend@example.com", received.To)
	}
	if !strings.Contains(received.Subject, "The Petersons") {
		t.Errorf("subject %q missing household name", received.Subject)
	}
	if !strings.Contains(received.Text, "https://pettrack.test/invite?token=abc123") {
		t.Errorf("text body %q missing invite link", received.Text)
	}
}

func TestSendInviteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-key", "noreply@example.com", "https://pettrack.test")
	client.httpClient = &http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}

	if err := client.SendInvite("friend@example.com", "tok", "Household", "Alice"); err == nil {
		t.Fatal("expected error for 4xx response")
	}
}

func TestSendInviteUnconfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://pettrack.test")
	if client.Configured() {
		t.Fatal("client with empty key reports configured")
	}
	if err := client.SendInvite("friend@example.com", "tok", "Household", "Alice"); err == nil {
		t.Fatal("expected error when unconfigured")
	}
}

type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.target[len("http://"):]
	return t.base.RoundTrip(req)
}
