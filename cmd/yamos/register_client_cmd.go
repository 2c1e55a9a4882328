package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type registerClientResponse struct {
	ClientID              string   `json:"client_id"`
	ClientSecret          string   `json:"client_secret"`
	ClientIDIssuedAt      int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt int64    `json:"client_secret_expires_at"`
	GrantTypes            []string `json:"grant_types"`
}

func registerClientCmd() *cobra.Command {
	var gatewayURL string
	var clientName string
	var redirectURIs []string

	cmd := &cobra.Command{
		Use:   "register-client",
		Short: "Register an OAuth client against a running gateway's /register endpoint",
		Long: `Calls a running yamos gateway's dynamic client registration endpoint
(RFC 7591) out-of-band and prints the issued client_id/client_secret.

Clients that speak MCP normally register themselves on first connect;
use this command to pre-provision credentials for a client that can't,
or to inspect what registration returns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gatewayURL == "" {
				return fmt.Errorf("--gateway-url is required")
			}
			return runRegisterClient(cmd, gatewayURL, clientName, redirectURIs)
		},
	}

	cmd.Flags().StringVar(&gatewayURL, "gateway-url", "", "Base URL of the running gateway, e.g. https://gateway.example.com")
	cmd.Flags().StringVar(&clientName, "name", "", "Human-readable client_name to register")
	cmd.Flags().StringArrayVar(&redirectURIs, "redirect-uri", nil, "Allowed redirect_uri (repeatable)")

	return cmd
}

func runRegisterClient(cmd *cobra.Command, gatewayURL, clientName string, redirectURIs []string) error {
	reqBody, err := json.Marshal(map[string]any{
		"client_name":   clientName,
		"redirect_uris": redirectURIs,
	})
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := httpClient.Post(gatewayURL+"/register", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("call %s/register: %w", gatewayURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read registration response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registration failed: %s: %s", resp.Status, string(body))
	}

	var reg registerClientResponse
	if err := json.Unmarshal(body, &reg); err != nil {
		return fmt.Errorf("parse registration response: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "client_id:     %s\n", reg.ClientID)
	fmt.Fprintf(cmd.OutOrStdout(), "client_secret: %s\n", reg.ClientSecret)
	fmt.Fprintf(cmd.OutOrStdout(), "grant_types:   %v\n", reg.GrantTypes)
	return nil
}
