package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_React(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "demo-pack")

	if err := Run(projectDir, "react"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expectedFiles := []string{
		"packforge.json",
		"package.json",
		".env.example",
		"src/Hero.jsx",
		"src/hero.schema.json",
	}
	for _, file := range expectedFiles {
		if _, err := os.Stat(filepath.Join(projectDir, file)); os.IsNotExist(err) {
			t.Errorf("expected file %s to be created, but it doesn't exist", file)
		}
	}

	pkg, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil {
		t.Fatalf("failed to read package.json: %v", err)
	}
	if !strings.Contains(string(pkg), `"name": "demo-pack"`) {
		t.Errorf("package.json not templated with pack name, got:\n%s", pkg)
	}
	if !strings.Contains(string(pkg), `"react"`) {
		t.Errorf("react template missing runtime dependency, got:\n%s", pkg)
	}

	// No unprocessed template files may survive.
	filepath.WalkDir(projectDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && strings.HasSuffix(path, ".tmpl") {
			t.Errorf("unprocessed template file %s left behind", path)
		}
		return nil
	})
}

func TestRun_Vanilla(t *testing.T) {
	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "plain-pack")

	if err := Run(projectDir, "vanilla"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(projectDir, "src", "hero.js")); os.IsNotExist(err) {
		t.Error("expected src/hero.js to be created")
	}
}

func TestRun_DirectoryNotEmpty(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "demo-pack")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, "existing.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(projectDir, "react"); err == nil {
		t.Error("Run() expected error for non-empty directory, got nil")
	}
}

func TestRun_InvalidTemplate(t *testing.T) {
	err := Run(filepath.Join(t.TempDir(), "x"), "angular")
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("Run() error = %v, want ErrInvalidTemplate", err)
	}
}

func TestDerivePackName(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/tmp/work/my-pack", "my-pack"},
		{".", "component-pack"},
		{"/", "component-pack"},
	}
	for _, tt := range tests {
		if got := DerivePackName(tt.dir); got != tt.want {
			t.Errorf("DerivePackName(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}
