package commands

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "markcat") {
		t.Fatalf("expected 'markcat', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestVersionVerbose(t *testing.T) {
	dir := setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "-v")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, dir) {
		t.Fatalf("expected config path under %s, got: %s", dir, stdout)
	}
}

func TestVersionBadFormat(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "version", "--format", "table")
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !strings.Contains(stderr, "unsupported output format") {
		t.Fatalf("unexpected stderr: %s", stderr)
	}
}
