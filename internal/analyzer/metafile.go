package analyzer

import "encoding/json"

// metafile mirrors the esbuild metafile JSON structure, limited to the
// fields the analyzer reads.
type metafile struct {
	Inputs map[string]metafileInput `json:"inputs"`
}

type metafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []metafileImport `json:"imports"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// staticImportKinds are the metafile import kinds produced by static import
// syntax. Dynamic and conditional imports are deliberately not analyzed.
var staticImportKinds = map[string]bool{
	"import-statement": true,
	"import-rule":      true,
}

func parseMetafile(data string) (*metafile, error) {
	var m metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
