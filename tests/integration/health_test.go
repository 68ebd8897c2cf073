//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLivez(t *testing.T) {
	resp := doGet(t, "/livez", 0)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	health := decodeJSON[healthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want %q", health.Status, "ok")
	}
}

func TestReadyz(t *testing.T) {
	resp := doGet(t, "/readyz", 0)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	health := decodeJSON[healthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want %q", health.Status, "ok")
	}
	// Failing checks would be listed by name; a healthy service reports none.
	if len(health.Checks) != 0 {
		t.Errorf("unexpected failing checks: %v", health.Checks)
	}
}
