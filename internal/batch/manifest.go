package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one rendered frame in the output manifest.
type ManifestEntry struct {
	Frame int    `json:"frame"`
	Image string `json:"image"`
}

// Manifest describes a finished render.
type Manifest struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Frames int             `json:"frames"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Format string          `json:"format"`
	Images []ManifestEntry `json:"images"`
}

// WriteManifest writes manifest.json for the successful results.
func WriteManifest(path string, m Manifest, results []Result) error {
	m.Images = m.Images[:0]
	for _, r := range results {
		if !r.Success {
			continue
		}
		m.Images = append(m.Images, ManifestEntry{Frame: r.Frame, Image: r.Image})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
