package api

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// WritePlots decodes the base64 PNG payloads carried by e and writes
// them into dir, creating it if needed. Returns the paths written;
// explanations without plots (batch responses) write nothing.
func (e *Explanation) WritePlots(dir string) ([]string, error) {
	plots := []struct {
		name string
		data string
	}{
		{"shap_waterfall.png", e.Details.Plots.SHAP.Waterfall},
		{"shap_importance.png", e.Details.Plots.SHAP.Importance},
		{"lime_explanation.png", e.Details.Plots.Lime.Explanation},
	}

	var written []string
	for _, p := range plots {
		if p.data == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(p.data)
		if err != nil {
			return written, fmt.Errorf("decode %s: %w", p.name, err)
		}
		if len(written) == 0 {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create plot dir: %w", err)
			}
		}
		path := filepath.Join(dir, p.name)
		if err := os.WriteFile(path, raw, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", p.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
