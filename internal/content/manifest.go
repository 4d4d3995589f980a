package content

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest is the handoff format between the external content parser
// and the sync engine: the parser serializes its parsed items to JSON
// and the engine reads them back here.
type Manifest struct {
	GeneratedAt string  `json:"generated_at,omitempty"`
	ContentRoot string  `json:"content_root,omitempty"`
	Items       []*Item `json:"items"`
}

// LoadManifest reads a parser manifest from disk. Items without an id
// get one derived from their kind and relative path.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	for _, item := range m.Items {
		if item.ID == "" {
			item.ID = ItemID(item.Type, item.RelativePath)
		}
	}

	return &m, nil
}
