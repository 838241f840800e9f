// Package publish pushes the sites tree to a git remote so generated
// sites can be picked up by external static hosting. The tree is one
// repository holding every user's site; publishing one user commits only
// that user's directory.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"sitesmith/internal/models"
)

// ErrNotConfigured is returned by Noop so callers can tell a disabled
// publisher from a failed push.
var ErrNotConfigured = errors.New("publishing is not configured")

// Publisher pushes one user's current site to the configured destination.
type Publisher interface {
	Publish(ctx context.Context, userID string) error
}

// Noop is the Publisher used when no remote is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, userID string) error {
	return ErrNotConfigured
}

// gitTimeout bounds the whole publish sequence, push included.
const gitTimeout = 60 * time.Second

// runGit is injectable in tests.
var runGit = func(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// Git publishes by committing a user's directory in the sites root and
// pushing to a remote.
type Git struct {
	root   string // sites root, used as the git work tree
	remote string
	branch string
}

// NewGit creates a git publisher for the sites tree rooted at root.
func NewGit(root, remote, branch string) *Git {
	if branch == "" {
		branch = "main"
	}
	return &Git{root: root, remote: remote, branch: branch}
}

// Publish stages the user's directory, commits, and pushes. Publishing
// an unchanged site is a success, not an error.
func (g *Git) Publish(ctx context.Context, userID string) error {
	if err := models.ValidateUserID(userID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	if err := g.ensureRepo(ctx); err != nil {
		return err
	}

	// The "--" keeps a hostile user id from being parsed as an option.
	if _, err := runGit(ctx, g.root, "add", "--", userID); err != nil {
		return err
	}

	staged, err := runGit(ctx, g.root, "status", "--porcelain", "--", userID)
	if err != nil {
		return err
	}
	if staged == "" {
		slog.Info("publish: no changes", "user", userID)
		return nil
	}

	msg := fmt.Sprintf("publish %s at %s", userID, time.Now().UTC().Format(time.RFC3339))
	if _, err := runGit(ctx, g.root, "commit", "-m", msg); err != nil {
		return err
	}
	if _, err := runGit(ctx, g.root, "push", g.remote, "HEAD:"+g.branch); err != nil {
		return err
	}

	slog.Info("site published", "user", userID, "remote", g.remote, "branch", g.branch)
	return nil
}

// ensureRepo initializes the work tree on first use. Detection checks
// for a .git directory directly under the root rather than asking git,
// which would walk up into any enclosing repository.
func (g *Git) ensureRepo(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(g.root, ".git")); err == nil {
		return nil
	}
	if err := os.MkdirAll(g.root, 0o755); err != nil {
		return fmt.Errorf("create sites root: %w", err)
	}
	if _, err := runGit(ctx, g.root, "init", "-b", g.branch); err != nil {
		return err
	}
	if _, err := runGit(ctx, g.root, "config", "user.email", "publisher@sitesmith.local"); err != nil {
		return err
	}
	if _, err := runGit(ctx, g.root, "config", "user.name", "sitesmith publisher"); err != nil {
		return err
	}
	return nil
}
