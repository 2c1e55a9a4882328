package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterClientPrintsIssuedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(registerClientResponse{
			ClientID:     "mcp-client-abc",
			ClientSecret: "s3cr3t",
			GrantTypes:   []string{"authorization_code"},
		})
	}))
	defer srv.Close()

	root := &cobra.Command{Use: "yamos"}
	root.AddCommand(registerClientCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register-client", "--gateway-url", srv.URL, "--name", "test-client"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	if !strings.Contains(out.String(), "mcp-client-abc") {
		t.Fatalf("expected client_id in output, got: %q", out.String())
	}
	if !strings.Contains(out.String(), "s3cr3t") {
		t.Fatalf("expected client_secret in output, got: %q", out.String())
	}
}

func TestRegisterClientRequiresGatewayURL(t *testing.T) {
	root := &cobra.Command{Use: "yamos"}
	root.AddCommand(registerClientCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register-client"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error when --gateway-url is missing")
	}
}

func TestRegisterClientPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_redirect_uri"}`))
	}))
	defer srv.Close()

	root := &cobra.Command{Use: "yamos"}
	root.AddCommand(registerClientCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"register-client", "--gateway-url", srv.URL})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error when gateway rejects registration")
	}
}
