// Package workspace applies backend-proposed actions to the local
// project directory.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/codessa-ai/echopilot/sdk/codessa"
)

const (
	// MaxOutputLength caps the captured output of a run action.
	MaxOutputLength = 30000
	// DefaultRunTimeout bounds a run action when the caller's context
	// carries no deadline of its own.
	DefaultRunTimeout = 2 * time.Minute
)

// Result describes the outcome of one applied action, suitable for a
// one-line report in the UI or on the terminal.
type Result struct {
	Action codessa.Action
	Output string
}

// Applier executes actions against a workspace root. Every file target
// must resolve inside the root; anything escaping it is rejected.
type Applier struct {
	root   string
	logger *codessa.Logger
}

// NewApplier returns an applier rooted at the given directory. The
// root is resolved to an absolute path once so later containment
// checks are stable.
func NewApplier(root string, logger *codessa.Logger) (*Applier, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}
	return &Applier{root: abs, logger: logger}, nil
}

// Root returns the absolute workspace root.
func (a *Applier) Root() string {
	return a.root
}

// Apply executes a single action and returns a short outcome report.
func (a *Applier) Apply(ctx context.Context, action codessa.Action) (Result, error) {
	switch action.Kind {
	case codessa.ActionEdit, codessa.ActionCreate:
		return a.writeFile(action)
	case codessa.ActionDelete:
		return a.deleteFile(action)
	case codessa.ActionRun:
		return a.runCommand(ctx, action)
	default:
		return Result{}, fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// resolve maps an action target onto the filesystem and rejects paths
// that escape the workspace root.
func (a *Applier) resolve(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("action target is empty")
	}
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(a.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("target %q escapes the workspace root", target)
	}
	return path, nil
}

func (a *Applier) writeFile(action codessa.Action) (Result, error) {
	path, err := a.resolve(action.Target)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(action.Content), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", action.Target, err)
	}

	a.logger.Debug("wrote file", "path", path, "bytes", len(action.Content))
	return Result{
		Action: action,
		Output: fmt.Sprintf("wrote %s (%d bytes)", action.Target, len(action.Content)),
	}, nil
}

func (a *Applier) deleteFile(action codessa.Action) (Result, error) {
	path, err := a.resolve(action.Target)
	if err != nil {
		return Result{}, err
	}
	if path == a.root {
		return Result{}, fmt.Errorf("refusing to delete the workspace root")
	}

	if err := os.Remove(path); err != nil {
		return Result{}, fmt.Errorf("delete %s: %w", action.Target, err)
	}

	a.logger.Debug("deleted file", "path", path)
	return Result{
		Action: action,
		Output: fmt.Sprintf("deleted %s", action.Target),
	}, nil
}

func (a *Applier) runCommand(ctx context.Context, action codessa.Action) (Result, error) {
	if action.Command == "" {
		return Result{}, fmt.Errorf("run action has no command")
	}

	dir := a.root
	if action.Target != "" {
		resolved, err := a.resolve(action.Target)
		if err != nil {
			return Result{}, err
		}
		dir = resolved
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultRunTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", action.Command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	output := stdout.String()
	if stderr.Len() > 0 {
		if len(output) > 0 {
			output += "\n"
		}
		output += stderr.String()
	}
	if len(output) > MaxOutputLength {
		output = output[:MaxOutputLength] + "\n... (output truncated)"
	}

	a.logger.Debug("ran command", "command", action.Command, "dir", dir, "error", runErr)

	if runErr != nil {
		return Result{Action: action, Output: output}, fmt.Errorf("run %q: %w", action.Command, runErr)
	}
	return Result{Action: action, Output: output}, nil
}
