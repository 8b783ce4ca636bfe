package policy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

// policyServer returns violations keyed by file path.
func policyServer(t *testing.T, byFile map[string][]codessa.PolicyViolation, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/policy/check" {
			http.NotFound(w, r)
			return
		}
		if calls != nil {
			calls.Add(1)
		}

		var req codessa.PolicyCheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		violations := byFile[filepath.Base(req.FilePath)]
		if violations == nil {
			violations = []codessa.PolicyViolation{}
		}
		json.NewEncoder(w).Encode(map[string]any{"violations": violations})
	}))
}

func writeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("content of "+name), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestScanFiles(t *testing.T) {
	srv := policyServer(t, map[string][]codessa.PolicyViolation{
		"bad.go": {
			{Rule: "no-secrets", Severity: codessa.SeverityError, Message: "credential found", Line: 1, Column: 1},
			{Rule: "naming", Severity: codessa.SeverityWarning, Message: "bad name", Line: 2, Column: 5},
		},
	}, nil)
	defer srv.Close()

	client := codessa.NewClient(codessa.StaticSettings{Endpoint: srv.URL})
	runner := NewRunner(client, nil)

	paths := writeFiles(t, "clean.go", "bad.go")
	findings, err := runner.ScanFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("ScanFiles() error = %v", err)
	}

	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}
	if filepath.Base(findings[0].File) != "bad.go" {
		t.Errorf("expected findings attributed to bad.go, got %s", findings[0].File)
	}
	if !HasErrors(findings) {
		t.Error("expected HasErrors to report the error finding")
	}

	counts := CountBySeverity(findings)
	if counts[codessa.SeverityError] != 1 || counts[codessa.SeverityWarning] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestScanFilesCancellation(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The first file checks cleanly; the second check cancels the
		// scan and never answers.
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(map[string]any{"violations": []codessa.PolicyViolation{
				{Rule: "r", Severity: codessa.SeverityWarning, Message: "m", Line: 1, Column: 1},
			}})
			return
		}
		// Drain the body so the server's background read can observe
		// the client disconnect; otherwise r.Context() never cancels
		// and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := codessa.NewClient(codessa.StaticSettings{Endpoint: srv.URL})
	runner := NewRunner(client, nil)

	paths := writeFiles(t, "first.go", "second.go")
	findings, err := runner.ScanFiles(ctx, paths)
	if err == nil {
		t.Fatal("expected context error")
	}
	if ctx.Err() == nil || err != ctx.Err() {
		t.Errorf("expected the context error, got %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("expected the partial findings preserved, got %d", len(findings))
	}
}

func TestScanFilesMissingFile(t *testing.T) {
	srv := policyServer(t, nil, nil)
	defer srv.Close()

	client := codessa.NewClient(codessa.StaticSettings{Endpoint: srv.URL})
	runner := NewRunner(client, nil)

	_, err := runner.ScanFiles(context.Background(), []string{"/nonexistent/file.go"})
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestLanguage(t *testing.T) {
	cases := map[string]string{
		"main.go":    "go",
		"app.TSX":    "typescriptreact",
		"script.py":  "python",
		"notes.txt":  "plaintext",
		"Makefile":   "plaintext",
		"config.yml": "yaml",
		"schema.sql": "sql",
	}
	for path, want := range cases {
		if got := Language(path); got != want {
			t.Errorf("Language(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFormatReport(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		out := FormatReport(nil)
		if !strings.Contains(out, "no policy violations") {
			t.Errorf("unexpected empty report: %q", out)
		}
	})

	t.Run("findings", func(t *testing.T) {
		findings := []Finding{
			{File: "a.go", Violation: codessa.PolicyViolation{
				Rule: "no-secrets", Severity: codessa.SeverityError,
				Message: "credential found", Line: 3, Column: 7,
			}},
		}
		out := FormatReport(findings)
		if !strings.Contains(out, "a.go:3:7") {
			t.Errorf("expected file:line:col prefix, got %q", out)
		}
		if !strings.Contains(out, "no-secrets") || !strings.Contains(out, "credential found") {
			t.Errorf("expected rule and message, got %q", out)
		}
		if !strings.Contains(out, "1 violations (1 errors, 0 warnings, 0 info)") {
			t.Errorf("expected summary line, got %q", out)
		}
	})
}
