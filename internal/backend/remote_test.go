package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/naveenspark/tempo/pkg/client"
	"github.com/naveenspark/tempo/pkg/domain"
)

func newTestRemote(t *testing.T, url string) *Remote {
	t.Helper()
	c, err := client.New(url, "", client.WithRetryMaxElapsed(0))
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	return NewRemote(c)
}

func TestRemote_ClassifiesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No running timer found"}) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := newTestRemote(t, srv.URL).StopTimer(context.Background(), "tok", domain.TimeEntry{})
	if !IsRejection(err, http.StatusNotFound) {
		t.Fatalf("err = %v, want 404 rejection", err)
	}
	if err.Error() != "No running timer found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRemote_ClassifiesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestRemote(t, url).ListProjects(context.Background(), "tok")
	if !IsUnreachable(err) {
		t.Fatalf("err = %v, want unreachable", err)
	}
}

func TestRemote_LoginFetchesProfileWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			json.NewEncoder(w).Encode(domain.AuthToken{AccessToken: "tok", TokenType: "bearer"}) //nolint:errcheck
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(domain.User{ID: "u1", Name: "Demo User"}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tok, err := newTestRemote(t, srv.URL).Login(context.Background(), "demo@example.com", "password")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if tok.User == nil || tok.User.Name != "Demo User" {
		t.Errorf("User = %+v, want Demo User", tok.User)
	}
}

func TestRemote_UsesPerCallToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]domain.Project{}) //nolint:errcheck
	}))
	defer srv.Close()

	if _, err := newTestRemote(t, srv.URL).ListProjects(context.Background(), "abc"); err != nil {
		t.Fatalf("ListProjects() error: %v", err)
	}
	if got != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
	}
}
