package commands

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "equivocal") {
		t.Fatalf("expected 'equivocal', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	_, cleanup := setupTestEnv(t)
	defer cleanup()

	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestVersionVerbose(t *testing.T) {
	dir, cleanup := setupTestEnv(t)
	defer cleanup()

	stdout, _, code := runCmd(t, "version", "-v")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "go:") || !strings.Contains(stdout, dir) {
		t.Fatalf("expected go version and config dir, got: %s", stdout)
	}
}
