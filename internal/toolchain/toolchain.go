// Package toolchain locates and, when missing, installs the external
// build-only tools some stages shell out to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrToolUnavailable marks a tool that could not be found even after one
// install attempt. Fatal for the stage that needed the tool.
var ErrToolUnavailable = errors.New("tool unavailable")

// EnsureTool resolves a tool binary, looking at PATH and the project's
// node_modules/.bin. On a miss it runs exactly one npm install attempt for
// installPkg and retries the lookup once; a second miss is fatal.
func EnsureTool(ctx context.Context, projectDir, name, installPkg string) (string, error) {
	if path, ok := lookup(projectDir, name); ok {
		return path, nil
	}

	if err := npmInstall(ctx, projectDir, installPkg); err != nil {
		return "", fmt.Errorf("%w: %q (install attempt failed: %v)", ErrToolUnavailable, name, err)
	}

	if path, ok := lookup(projectDir, name); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: %q not found after installing %q", ErrToolUnavailable, name, installPkg)
}

func lookup(projectDir, name string) (string, bool) {
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	local := filepath.Join(projectDir, "node_modules", ".bin", name)
	if _, err := os.Stat(local); err == nil {
		return local, true
	}
	return "", false
}

func npmInstall(ctx context.Context, projectDir, pkg string) error {
	cmd := exec.CommandContext(ctx, "npm", "install", "--no-save", pkg)
	cmd.Dir = projectDir
	// The child reads ambient env; hand it an explicit development mode so
	// npm does not skip the dev-only package, without touching our own env.
	cmd.Env = append(os.Environ(), "NODE_ENV=development")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%v: %s", err, stderr.String())
		}
		return err
	}
	return nil
}

// Run executes a resolved tool, returning its stderr in the error on
// failure.
func Run(ctx context.Context, projectDir, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = projectDir
	cmd.Env = append(os.Environ(), "NODE_ENV=production")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%s failed: %s", filepath.Base(bin), stderr.String())
		}
		return fmt.Errorf("%s failed: %w", filepath.Base(bin), err)
	}
	return nil
}
