package manifest

import (
	"encoding/json"
	"os"
	"strings"
)

// versionOperators are checked in order; two-character operators come before
// their one-character prefixes so ">=1.0.0" never degrades to "=1.0.0".
var versionOperators = []string{">=", "<=", "^", "~", ">", "<"}

// NormalizeVersion strips a single leading range operator from a version
// range so the remainder can be embedded in a storage path. It is a pure
// function: "^5.0.0" -> "5.0.0", "~4.2.1" -> "4.2.1", "3.0.0" -> "3.0.0".
func NormalizeVersion(v string) string {
	for _, op := range versionOperators {
		if strings.HasPrefix(v, op) {
			return strings.TrimSpace(strings.TrimPrefix(v, op))
		}
	}
	return v
}

// DepStoragePath is the storage-relative directory for a bundled dependency,
// "deps/<name>@<normalized version>". The same path is embedded in import
// map URLs and in the manifest.
func DepStoragePath(name, version string) string {
	return "deps/" + name + "@" + NormalizeVersion(version)
}

// SanitizeSubExport turns a sub-export name into a flat artifact file stem:
// "internal/client" -> "internal-client".
func SanitizeSubExport(sub string) string {
	return strings.ReplaceAll(strings.Trim(sub, "/"), "/", "-")
}

// Parse decodes a manifest from its JSON form.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Write marshals the manifest with indentation and writes it to path.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Write marshals the import map with indentation and writes it to path.
func (im *ImportMap) Write(path string) error {
	data, err := json.MarshalIndent(im, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
