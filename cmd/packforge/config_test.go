package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadComponents(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "packforge.json", `{
	  "components": [
	    {"name": "Hero", "displayName": "Hero Banner", "entry": "src/Hero.jsx", "schema": "src/hero.schema.json"},
	    {"name": "Card", "entry": "src/Card.jsx"}
	  ]
	}`)

	comps, err := loadComponents(dir)
	if err != nil {
		t.Fatalf("loadComponents failed: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("got %d components", len(comps))
	}

	hero := comps[0]
	if hero.DisplayName != "Hero Banner" {
		t.Errorf("DisplayName = %q", hero.DisplayName)
	}
	if hero.EntryPoint != filepath.Join(dir, "src", "Hero.jsx") {
		t.Errorf("EntryPoint = %q", hero.EntryPoint)
	}
	if hero.SourceDir != filepath.Join(dir, "src") {
		t.Errorf("SourceDir = %q", hero.SourceDir)
	}
	if hero.SchemaPath != filepath.Join(dir, "src", "hero.schema.json") {
		t.Errorf("SchemaPath = %q", hero.SchemaPath)
	}

	// Display name falls back to the component name.
	if comps[1].DisplayName != "Card" {
		t.Errorf("fallback DisplayName = %q", comps[1].DisplayName)
	}
	if comps[1].SchemaPath != "" {
		t.Errorf("unexpected SchemaPath %q", comps[1].SchemaPath)
	}
}

func TestLoadComponentsValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "empty list",
			config:  `{"components": []}`,
			wantErr: "no components",
		},
		{
			name:    "missing entry",
			config:  `{"components": [{"name": "Hero"}]}`,
			wantErr: "name and entry",
		},
		{
			name:    "missing name",
			config:  `{"components": [{"entry": "src/Hero.jsx"}]}`,
			wantErr: "name and entry",
		},
		{
			name: "duplicate name",
			config: `{"components": [
			  {"name": "Hero", "entry": "a.jsx"},
			  {"name": "Hero", "entry": "b.jsx"}
			]}`,
			wantErr: "duplicate component name",
		},
		{
			name:    "malformed json",
			config:  `{"components": [`,
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProjectFile(t, dir, "packforge.json", tt.config)
			_, err := loadComponents(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadComponentsMissingFile(t *testing.T) {
	_, err := loadComponents(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "packforge.json") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "package.json", `{
	  "name": "demo-pack",
	  "version": "1.0.0",
	  "dependencies": {"react": "^18.3.1", "carousel": "^2.1.0"},
	  "devDependencies": {"typescript": "^5.4.0", "react": "^17.0.0"}
	}`)

	meta, err := loadMetadata(dir)
	if err != nil {
		t.Fatalf("loadMetadata failed: %v", err)
	}
	if meta.Name != "demo-pack" || meta.Version != "1.0.0" {
		t.Errorf("meta = %+v", meta)
	}
	if got := meta.Dependencies["react"]; got != "^18.3.1" {
		t.Errorf("regular dependency must win on collision, got %q", got)
	}
	if _, ok := meta.Dependencies["typescript"]; !ok {
		t.Error("devDependencies missing from merged map")
	}
}
