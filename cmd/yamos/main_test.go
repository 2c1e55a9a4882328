package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestVersionCmdPrintsVersion(t *testing.T) {
	root := &cobra.Command{Use: "yamos"}
	root.AddCommand(versionCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute(): %v", err)
	}
	if !strings.Contains(out.String(), "yamos") {
		t.Fatalf("expected version output to mention yamos, got %q", out.String())
	}
}

func TestDefaultConfigPathPrefersExplicitFlag(t *testing.T) {
	configPath = "explicit.toml"
	t.Cleanup(func() { configPath = "" })

	if got := defaultConfigPath(); got != "explicit.toml" {
		t.Errorf("got %q", got)
	}
}

func TestDefaultConfigPathEmptyWhenNoFileAndNoFlag(t *testing.T) {
	configPath = ""
	if got := defaultConfigPath(); got != "" {
		t.Errorf("expected empty path when config.toml is absent, got %q", got)
	}
}
