package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

func newApplier(t *testing.T) *Applier {
	t.Helper()
	a, err := NewApplier(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestApplyCreate(t *testing.T) {
	a := newApplier(t)

	result, err := a.Apply(context.Background(), codessa.Action{
		Kind:    codessa.ActionCreate,
		Target:  "pkg/util/helper.go",
		Content: "package util\n",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(a.Root(), "pkg", "util", "helper.go"))
	if err != nil {
		t.Fatalf("expected file created with parents: %v", err)
	}
	if string(data) != "package util\n" {
		t.Errorf("unexpected content: %q", data)
	}
	if !strings.Contains(result.Output, "helper.go") {
		t.Errorf("expected target in output, got %q", result.Output)
	}
}

func TestApplyEditOverwrites(t *testing.T) {
	a := newApplier(t)

	path := filepath.Join(a.Root(), "main.go")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := a.Apply(context.Background(), codessa.Action{
		Kind:    codessa.ActionEdit,
		Target:  "main.go",
		Content: "new",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("expected file replaced, got %q", data)
	}
}

func TestApplyDelete(t *testing.T) {
	a := newApplier(t)

	path := filepath.Join(a.Root(), "obsolete.go")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := a.Apply(context.Background(), codessa.Action{
		Kind:   codessa.ActionDelete,
		Target: "obsolete.go",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file removed")
	}
}

func TestApplyDeleteMissing(t *testing.T) {
	a := newApplier(t)

	_, err := a.Apply(context.Background(), codessa.Action{
		Kind:   codessa.ActionDelete,
		Target: "never-existed.go",
	})
	if err == nil {
		t.Fatal("expected error deleting a missing file")
	}
}

func TestApplyRejectsEscapingTargets(t *testing.T) {
	a := newApplier(t)

	targets := []string{
		"../outside.go",
		"nested/../../outside.go",
		"/etc/passwd",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			_, err := a.Apply(context.Background(), codessa.Action{
				Kind:    codessa.ActionCreate,
				Target:  target,
				Content: "nope",
			})
			if err == nil {
				t.Fatalf("expected %q to be rejected", target)
			}
			if !strings.Contains(err.Error(), "escapes") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyRun(t *testing.T) {
	a := newApplier(t)

	result, err := a.Apply(context.Background(), codessa.Action{
		Kind:    codessa.ActionRun,
		Command: "echo hello",
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if strings.TrimSpace(result.Output) != "hello" {
		t.Errorf("unexpected output: %q", result.Output)
	}
}

func TestApplyRunFailure(t *testing.T) {
	a := newApplier(t)

	result, err := a.Apply(context.Background(), codessa.Action{
		Kind:    codessa.ActionRun,
		Command: "echo oops >&2; exit 3",
	})
	if err == nil {
		t.Fatal("expected error for a failing command")
	}
	if !strings.Contains(result.Output, "oops") {
		t.Errorf("expected stderr captured, got %q", result.Output)
	}
}

func TestApplyRunCancelled(t *testing.T) {
	a := newApplier(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Apply(ctx, codessa.Action{
		Kind:    codessa.ActionRun,
		Command: "sleep 10",
	})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestApplyUnknownKind(t *testing.T) {
	a := newApplier(t)

	_, err := a.Apply(context.Background(), codessa.Action{Kind: "teleport", Target: "x"})
	if err == nil {
		t.Fatal("expected error for unknown action kind")
	}
}

func TestNewApplierValidation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewApplier(file, nil); err == nil {
		t.Fatal("expected error when the root is not a directory")
	}
	if _, err := NewApplier(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatal("expected error when the root does not exist")
	}
}
