// Package scaffold creates new component-pack projects from embedded starter
// templates and checks an existing project's environment before a publish.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/packforge/packforge/internal/cli"
)

//go:embed all:templates
var templateFS embed.FS

var validTemplates = []string{"react", "vanilla"}

var ErrInvalidTemplate = errors.New("invalid template name")

// Templates lists the available starter template names.
func Templates() []string {
	return validTemplates
}

func templateRoot(name string) (fs.FS, error) {
	for _, t := range validTemplates {
		if t == name {
			return fs.Sub(templateFS, "templates/"+name)
		}
	}
	return nil, ErrInvalidTemplate
}

// Data feeds the .tmpl placeholders of a starter template.
type Data struct {
	Name string
}

func processFilename(filename string) (string, bool) {
	if before, ok := strings.CutSuffix(filename, ".tmpl"); ok {
		return before, true
	}
	return filename, false
}

func processContent(content []byte, isTemplate bool, data Data) []byte {
	if !isTemplate {
		return content
	}
	return []byte(strings.ReplaceAll(string(content), "{{.Name}}", data.Name))
}

// DerivePackName derives a pack name from the project directory's base name.
func DerivePackName(projectDir string) string {
	base := filepath.Base(projectDir)
	if base == "." || base == "/" || base == "" {
		return "component-pack"
	}
	return base
}

// Run materializes a starter template into projectDir. The directory must be
// empty or absent; an existing non-empty directory is never touched.
func Run(projectDir, templateName string) error {
	if _, err := os.Stat(projectDir); err == nil {
		entries, err := os.ReadDir(projectDir)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("directory %q already exists and is not empty", projectDir)
		}
	}

	root, err := templateRoot(templateName)
	if err != nil {
		if errors.Is(err, ErrInvalidTemplate) {
			return fmt.Errorf("%w: %q (available: %s)", ErrInvalidTemplate, templateName, strings.Join(validTemplates, ", "))
		}
		return err
	}

	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	data := Data{Name: DerivePackName(projectDir)}
	created := 0

	err = fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			return os.MkdirAll(filepath.Join(projectDir, path), 0o755)
		}

		content, err := fs.ReadFile(root, path)
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", path, err)
		}

		target, isTemplate := processFilename(path)
		targetPath := filepath.Join(projectDir, target)
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(targetPath, processContent(content, isTemplate, data), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", targetPath, err)
		}

		cli.File(targetPath)
		created++
		return nil
	})
	if err != nil {
		return err
	}

	cli.Done("Created %d files using %q template", created, templateName)
	return nil
}
