package api

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestWritePlots(t *testing.T) {
	expl := &Explanation{
		Details: ExplanationDetails{
			Plots: Plots{
				SHAP: SHAPPlots{
					Waterfall:  base64.StdEncoding.EncodeToString([]byte("waterfall-png")),
					Importance: base64.StdEncoding.EncodeToString([]byte("importance-png")),
				},
				Lime: LimePlots{
					Explanation: base64.StdEncoding.EncodeToString([]byte("lime-png")),
				},
			},
		},
	}

	dir := filepath.Join(t.TempDir(), "plots")
	written, err := expl.WritePlots(dir)
	if err != nil {
		t.Fatalf("WritePlots: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("wrote %d files, want 3", len(written))
	}

	data, err := os.ReadFile(filepath.Join(dir, "shap_waterfall.png"))
	if err != nil {
		t.Fatalf("read waterfall: %v", err)
	}
	if string(data) != "waterfall-png" {
		t.Errorf("waterfall content = %q", data)
	}
}

func TestWritePlotsEmpty(t *testing.T) {
	expl := &Explanation{}
	dir := filepath.Join(t.TempDir(), "plots")

	written, err := expl.WritePlots(dir)
	if err != nil {
		t.Fatalf("WritePlots: %v", err)
	}
	if len(written) != 0 {
		t.Errorf("wrote %d files, want 0", len(written))
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("empty explanation should not create the plot dir")
	}
}

func TestWritePlotsBadBase64(t *testing.T) {
	expl := &Explanation{}
	expl.Details.Plots.SHAP.Waterfall = "not-base64!!!"

	if _, err := expl.WritePlots(t.TempDir()); err == nil {
		t.Fatal("expected decode error")
	}
}
