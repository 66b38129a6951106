package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mweber/pettrack/internal/database"
)

func setupTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, Config{}, logger).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "pettrack_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func register(t *testing.T, h http.Handler, name, email string) *http.Cookie {
	t.Helper()
	rec := doJSON(t, h, "POST", "/api/register", map[string]string{
		"name": name, "email": email, "password": "hunter2hunter2",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

func TestRegisterCreatesOwnedHousehold(t *testing.T) {
	h := setupTestRouter(t)

	cookie := register(t, h, "Ann", "ann@example.com")

	rec := doJSON(t, h, "GET", "/api/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}
	me := decodeBody(t, rec)

	user, _ := me["user"].(map[string]any)
	if user["name"] != "Ann" {
		t.Errorf("user name = %v, want Ann", user["name"])
	}
	household, _ := me["household"].(map[string]any)
	if household["name"] != "Ann's Household" {
		t.Errorf("household name = %v, want Ann's Household", household["name"])
	}
	if me["role"] != "owner" {
		t.Errorf("role = %v, want owner", me["role"])
	}
}

func TestInviteFlow(t *testing.T) {
	h := setupTestRouter(t)

	annCookie := register(t, h, "Ann", "ann@example.com")
	benCookie := register(t, h, "Ben", "ben@example.com")

	rec := doJSON(t, h, "GET", "/api/me", nil, annCookie)
	annHousehold, _ := decodeBody(t, rec)["household"].(map[string]any)
	annHouseholdID := annHousehold["id"].(float64)

	// Issue: the response must carry the token so it can be shared even when
	// no email provider is configured.
	rec = doJSON(t, h, "POST", "/api/invites", map[string]string{"email": "ben@example.com"}, annCookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invite: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	invite := decodeBody(t, rec)
	token, _ := invite["token"].(string)
	if len(token) != 64 {
		t.Fatalf("invite token = %q (%d chars), want 64 hex chars", token, len(token))
	}

	// Unauthenticated accept: 200 with the target email, token not consumed.
	rec = doJSON(t, h, "POST", "/api/invites/accept", map[string]string{"token": token}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous accept: status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["requires_auth"] != true {
		t.Errorf("requires_auth = %v, want true", body["requires_auth"])
	}
	if body["email"] != "ben@example.com" {
		t.Errorf("email = %v, want ben@example.com", body["email"])
	}

	// A different account cannot redeem it.
	caraCookie := register(t, h, "Cara", "cara@example.com")
	rec = doJSON(t, h, "POST", "/api/invites/accept", map[string]string{"token": token}, caraCookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched accept: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// The invited account joins as a member.
	rec = doJSON(t, h, "POST", "/api/invites/accept", map[string]string{"token": token}, benCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body = decodeBody(t, rec)
	if body["status"] != "joined" {
		t.Errorf("status = %v, want joined", body["status"])
	}
	if body["household_id"] != annHouseholdID {
		t.Errorf("household_id = %v, want %v", body["household_id"], annHouseholdID)
	}

	rec = doJSON(t, h, "GET", "/api/me", nil, benCookie)
	me := decodeBody(t, rec)
	benHousehold, _ := me["household"].(map[string]any)
	if benHousehold["name"] != "Ann's Household" {
		t.Errorf("joined household = %v, want Ann's Household", benHousehold["name"])
	}
	if me["role"] != "member" {
		t.Errorf("role = %v, want member", me["role"])
	}

	// Consumed tokens are gone.
	rec = doJSON(t, h, "POST", "/api/invites/accept", map[string]string{"token": token}, benCookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("re-accept consumed token: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
