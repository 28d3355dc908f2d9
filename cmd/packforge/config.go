package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/packforge/packforge/internal/manifest"
)

// packConfig is the packforge.json file at the project root, listing the
// components to publish. Component paths are project-relative.
type packConfig struct {
	Components []packComponent `json:"components"`
}

type packComponent struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Entry       string `json:"entry"`
	Schema      string `json:"schema,omitempty"`
}

// packageJSON is the subset of package.json the publish needs.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func loadComponents(projectDir string) ([]manifest.ComponentDescriptor, error) {
	data, err := os.ReadFile(filepath.Join(projectDir, "packforge.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read packforge.json: %w", err)
	}

	var cfg packConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse packforge.json: %w", err)
	}
	if len(cfg.Components) == 0 {
		return nil, fmt.Errorf("packforge.json lists no components")
	}

	seen := make(map[string]bool)
	comps := make([]manifest.ComponentDescriptor, 0, len(cfg.Components))
	for _, c := range cfg.Components {
		if c.Name == "" || c.Entry == "" {
			return nil, fmt.Errorf("component entries need both name and entry")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate component name %q", c.Name)
		}
		seen[c.Name] = true

		entry := filepath.Join(projectDir, filepath.FromSlash(c.Entry))
		display := c.DisplayName
		if display == "" {
			display = c.Name
		}
		desc := manifest.ComponentDescriptor{
			Name:        c.Name,
			DisplayName: display,
			EntryPoint:  entry,
			SourceDir:   filepath.Dir(entry),
		}
		if c.Schema != "" {
			desc.SchemaPath = filepath.Join(projectDir, filepath.FromSlash(c.Schema))
		}
		comps = append(comps, desc)
	}
	return comps, nil
}

// loadMetadata reads package.json and merges dependencies and
// devDependencies into one name -> version-range map. Regular dependencies
// win on collision.
func loadMetadata(projectDir string) (manifest.PackageMetadata, error) {
	var meta manifest.PackageMetadata

	data, err := os.ReadFile(filepath.Join(projectDir, "package.json"))
	if err != nil {
		return meta, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return meta, fmt.Errorf("failed to parse package.json: %w", err)
	}

	merged := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for name, version := range pkg.DevDependencies {
		merged[name] = version
	}
	for name, version := range pkg.Dependencies {
		merged[name] = version
	}

	return manifest.PackageMetadata{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Dependencies: merged,
	}, nil
}
