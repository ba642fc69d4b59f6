package tree

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// HgRunner runs mercurial commands against a local checkout.
type HgRunner struct {
	// Binary defaults to "hg".
	Binary string
}

func (r *HgRunner) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "hg"
}

func (r *HgRunner) Run(ctx context.Context, repoPath string, args ...string) error {
	slog.Info("Running hg command", "repo", repoPath, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.binary(), args...)
	cmd.Dir = repoPath

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hg %s failed: %w: %s", args[0], err, stderr.String())
	}
	return nil
}

func (r *HgRunner) Revision(ctx context.Context, repoPath, branch string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary(), "log", "-r", branch, "--template", "{node}")
	cmd.Dir = repoPath

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("hg log failed for branch %s: %w", branch, err)
	}
	return strings.TrimSpace(string(out)), nil
}
