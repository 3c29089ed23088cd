package skill

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const maxManifestSize = 64 * 1024

// Manifest describes a script tool loaded from <dir>/<name>/manifest.json.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Command     string          `json:"command"`
	TimeoutSecs int             `json:"timeout_secs,omitempty"`
}

// Info is what `brainvoice tools` prints for an installed script.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

func parseManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Name == "" || m.Command == "" {
		return nil, fmt.Errorf("manifest missing required fields (name, command)")
	}
	if len(m.Parameters) > 0 && !json.Valid(m.Parameters) {
		return nil, fmt.Errorf("manifest parameters are not valid JSON")
	}
	return &m, nil
}
