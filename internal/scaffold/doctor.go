package scaffold

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/packforge/packforge/internal/cli"
)

// Doctor verifies that a project directory has everything a publish needs:
// the external tools on PATH and the project files in place. Missing
// node_modules is a warning, not a failure; it only matters when a build
// actually resolves a dependency.
func Doctor(projectDir string) error {
	failures := 0

	for _, tool := range []string{"node", "npm"} {
		if path, err := exec.LookPath(tool); err == nil {
			cli.Success("%s found at %s", tool, path)
		} else {
			cli.Error("%s not found on PATH", tool)
			failures++
		}
	}

	for _, file := range []string{"packforge.json", "package.json"} {
		if _, err := os.Stat(filepath.Join(projectDir, file)); err == nil {
			cli.Success("%s present", file)
		} else {
			cli.Error("%s missing from %s", file, projectDir)
			failures++
		}
	}

	if _, err := os.Stat(filepath.Join(projectDir, "node_modules")); err == nil {
		cli.Success("node_modules present")
	} else {
		cli.Warning("node_modules missing; run npm install before publishing")
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	cli.Done("Environment looks good")
	return nil
}
