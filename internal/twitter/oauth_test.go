package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestExchange(t *testing.T) {
	var gotVerifier string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotVerifier = r.FormValue("code_verifier")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token": "token-1", "token_type": "Bearer"}`)
	}))
	defer srv.Close()

	o := NewOAuthConfig("client", "secret", "https://app.example/callback")
	o.config.Endpoint = oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInHeader}

	token, err := o.Exchange(context.Background(), "code-1", "verifier-1")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token.AccessToken != "token-1" {
		t.Fatalf("unexpected access token %q", token.AccessToken)
	}
	if gotVerifier != "verifier-1" {
		t.Fatalf("expected the PKCE verifier on the wire, got %q", gotVerifier)
	}
}

func TestExchangeKeepsUpstreamDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "invalid_grant"}`)
	}))
	defer srv.Close()

	o := NewOAuthConfig("client", "secret", "https://app.example/callback")
	o.config.Endpoint = oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInHeader}

	_, err := o.Exchange(context.Background(), "code-1", "verifier-1")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected an auth error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_grant") {
		t.Fatalf("expected the upstream detail in the error, got %q", err.Error())
	}
}
