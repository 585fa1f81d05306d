package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvaluateCommand(t *testing.T) {
	event := writeFile(t, "event.json", `{
		"account_id": "ACC-1",
		"amount": "2500",
		"currency": "USD",
		"category": "PURCHASE",
		"merchant": "Dodgy Deals",
		"country_code": "US",
		"event_time": "2024-03-14T03:00:00Z"
	}`)

	out, err := runCmd(t, "evaluate", event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"fraudulent: 2 rule(s) triggered", "Merchant is blacklisted", "Large transaction at unusual hours"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvaluateCommand_Clean(t *testing.T) {
	event := writeFile(t, "event.json", `{"account_id":"ACC-1","amount":"10","category":"ATM","event_time":"2024-03-14T12:00:00Z"}`)

	out, err := runCmd(t, "evaluate", event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "clean") {
		t.Errorf("expected clean verdict, got %q", out)
	}
}

func TestAlertsListCommand_Empty(t *testing.T) {
	out, err := runCmd(t, "alerts", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "ID") || strings.Count(out, "\n") != 1 {
		t.Errorf("expected header only, got %q", out)
	}
}

func TestAlertsCloseCommand_NotFound(t *testing.T) {
	if _, err := runCmd(t, "alerts", "close", "missing"); err == nil {
		t.Fatal("expected error for unknown alert")
	}
}

func TestBadConfigFails(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "storage:\n  driver: postgres\n")
	if _, err := runCmd(t, "--config", cfg, "alerts", "list"); err == nil {
		t.Fatal("expected config error")
	}
}
