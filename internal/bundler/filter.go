package bundler

import "strings"

// Build-tool-only package patterns, matched against dependency names before
// anything is bundled. Substring patterns are deliberately distinctive;
// short generic words use exact matching instead. This list tracks the npm
// ecosystem and needs occasional manual maintenance.
var (
	buildToolPrefixes = []string{
		"@types/",
		"@typescript-eslint/",
		"@testing-library/",
	}
	buildToolSubstrings = []string{
		"eslint",
		"prettier",
		"typescript",
		"vitest",
		"jest",
		"webpack",
		"rollup",
		"esbuild",
		"babel",
		"postcss",
		"autoprefixer",
		"tailwindcss",
		"stylelint",
		"svelte-check",
		"vue-tsc",
		"nodemon",
		"lint-staged",
		"husky",
	}
	buildToolExact = []string{
		"vite",
		"sass",
		"less",
		"terser",
		"rimraf",
		"concurrently",
	}
)

// FilterRuntimeDependencies removes known build-tool-only packages (type
// declarations, linters, formatters, test runners, CSS frameworks used only
// at build time) from a dependency map. The input map is not modified.
func FilterRuntimeDependencies(deps map[string]string) map[string]string {
	kept := make(map[string]string, len(deps))
	for name, version := range deps {
		if isBuildTool(name) {
			continue
		}
		kept[name] = version
	}
	return kept
}

func isBuildTool(name string) bool {
	for _, p := range buildToolPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range buildToolSubstrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	for _, e := range buildToolExact {
		if name == e {
			return true
		}
	}
	return false
}
