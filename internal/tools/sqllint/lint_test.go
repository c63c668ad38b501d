package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLintRepositoryQueries(t *testing.T) {
	violations, err := Lint([]string{"../../sqlinline"})
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected violation: %s", v)
	}
}

func TestLintReportsViolations(t *testing.T) {
	dir := t.TempDir()
	src := "package q\n\n" +
		"const QOK = `--sql 11111111-2222-3333-4444-555555555555\nSELECT 1`\n\n" +
		"const QNoMarker = `SELECT 2`\n\n" +
		"const QDup = `--sql 11111111-2222-3333-4444-555555555555\nDELETE FROM t`\n\n" +
		"const Greeting = \"hello there\"\n"
	if err := os.WriteFile(filepath.Join(dir, "q.go"), []byte(src), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	violations, err := Lint([]string{dir})
	if err != nil {
		t.Fatalf("Lint: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %v, want 2", violations)
	}
	if violations[0].Name != "QNoMarker" || !strings.Contains(violations[0].Message, "missing") {
		t.Fatalf("first violation = %+v", violations[0])
	}
	if violations[1].Name != "QDup" || !strings.Contains(violations[1].Message, "QOK") {
		t.Fatalf("second violation = %+v", violations[1])
	}
}
