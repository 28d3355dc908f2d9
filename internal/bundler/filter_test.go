package bundler

import "testing"

func TestFilterRuntimeDependencies(t *testing.T) {
	deps := map[string]string{
		"react":                "^18.3.1",
		"react-dom":            "^18.3.1",
		"carousel":             "^2.1.0",
		"@types/react":         "^18.3.0",
		"typescript":           "^5.4.0",
		"eslint":               "^9.0.0",
		"eslint-plugin-react":  "^7.34.0",
		"vite":                 "^5.2.0",
		"tailwindcss":          "^3.4.0",
		"@testing-library/dom": "^10.0.0",
		"prettier":             "^3.2.0",
	}

	kept := FilterRuntimeDependencies(deps)

	for _, want := range []string{"react", "react-dom", "carousel"} {
		if _, ok := kept[want]; !ok {
			t.Errorf("runtime dependency %q was filtered out", want)
		}
	}
	for _, dropped := range []string{
		"@types/react", "typescript", "eslint", "eslint-plugin-react",
		"vite", "tailwindcss", "@testing-library/dom", "prettier",
	} {
		if _, ok := kept[dropped]; ok {
			t.Errorf("build tool %q survived filtering", dropped)
		}
	}
	if len(deps) != 11 {
		t.Error("input map was modified")
	}
}

func TestIsBuildToolExactMatches(t *testing.T) {
	// "vite" is filtered exactly; packages merely containing it are not.
	tests := []struct {
		name string
		want bool
	}{
		{"vite", true},
		{"invite-widget", false},
		{"sass", true},
		{"sass-embedded", false},
		{"husky", true},
	}
	for _, tt := range tests {
		if got := isBuildTool(tt.name); got != tt.want {
			t.Errorf("isBuildTool(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
