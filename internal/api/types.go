package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/0ritam/studentlens/internal/student"
)

// Outcome is a predicted final-result class.
type Outcome string

const (
	OutcomeDistinction Outcome = "Distinction"
	OutcomePass        Outcome = "Pass"
	OutcomeFail        Outcome = "Fail"
	OutcomeWithdrawn   Outcome = "Withdrawn"
)

// Outcomes lists the classes in display order, best first.
func Outcomes() []Outcome {
	return []Outcome{OutcomeDistinction, OutcomePass, OutcomeFail, OutcomeWithdrawn}
}

// HealthStatus is the GET /health response.
type HealthStatus struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
	Timestamp   string `json:"timestamp"`
}

// Healthy reports whether the service is ready to serve predictions.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy" && h.ModelLoaded
}

// Prediction is the POST /predict response.
type Prediction struct {
	Prediction    Outcome             `json:"prediction"`
	Probabilities map[Outcome]float64 `json:"probabilities"`
	Confidence    float64             `json:"confidence"`
	StudentID     int                 `json:"student_id"`
}

// Explanation is the POST /explain response. The lime_explanation field
// carries the combined SHAP+LIME detail despite its name; that is the
// service's wire format.
type Explanation struct {
	StudentID         int                 `json:"student_id"`
	Prediction        Outcome             `json:"prediction"`
	SHAPValues        FeatureWeights      `json:"shap_values"`
	Details           ExplanationDetails  `json:"lime_explanation"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
}

// ExplanationDetails is the combined explainer output.
type ExplanationDetails struct {
	SHAP  FeatureWeights `json:"shap"`
	Lime  LimeDetail     `json:"lime"`
	Plots Plots          `json:"plots"`
}

// FeatureWeights maps feature names to explainer weights. When an
// explainer fails the service substitutes {"error": "..."} for the map,
// so decoding drops any entry whose value is not numeric.
type FeatureWeights map[string]float64

func (w *FeatureWeights) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FeatureWeights, len(raw))
	for name, val := range raw {
		var f float64
		if err := json.Unmarshal(val, &f); err != nil {
			continue
		}
		out[name] = f
	}
	*w = out
	return nil
}

// LimeDetail is the local surrogate model fitted by LIME.
type LimeDetail struct {
	TopFeatures     FeatureWeights `json:"top_features"`
	Intercept       float64        `json:"intercept"`
	LocalPrediction float64        `json:"local_prediction"`
}

// Plots holds the base64-encoded PNG visualizations.
type Plots struct {
	SHAP SHAPPlots `json:"shap"`
	Lime LimePlots `json:"lime"`
}

type SHAPPlots struct {
	Waterfall  string `json:"waterfall,omitempty"`
	Importance string `json:"importance,omitempty"`
}

type LimePlots struct {
	Explanation string `json:"explanation,omitempty"`
}

// FeatureImportance is one row of the service's combined ranking:
// importance is the mean of |shap| and |lime|, direction is positive
// when shap+lime > 0.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Direction  string  `json:"direction"`
	SHAPValue  float64 `json:"shap_value"`
	LimeValue  float64 `json:"lime_value"`
}

// batchRequest is the POST /batch-predict body.
type batchRequest struct {
	Students            []student.Record `json:"students"`
	IncludeExplanations bool             `json:"include_explanations"`
}

// BatchResult is the POST /batch-predict response. Records the service
// failed on are counted, not returned, so Predictions can be shorter
// than the submitted batch.
type BatchResult struct {
	Predictions    []Prediction  `json:"predictions"`
	Explanations   []Explanation `json:"explanations,omitempty"`
	TotalProcessed int           `json:"total_processed"`
	SuccessCount   int           `json:"success_count"`
	ErrorCount     int           `json:"error_count"`
}

// Guidelines is the GET /guidelines response: named sections of
// advice entries. Values are mixed (strings, numbers, booleans), so they
// stay as any and render via fmt.
type Guidelines struct {
	Sections map[string]map[string]any `json:"guidelines"`
}

// guidelineOrder fixes the display order of the sections the service is
// known to return.
var guidelineOrder = []string{
	"high_priority_factors",
	"engagement_metrics",
	"academic_performance",
	"demographics_that_help",
	"example_pass_profile",
}

// SectionNames returns section keys in display order: known sections
// first, anything new sorted alphabetically after them.
func (g Guidelines) SectionNames() []string {
	names := make([]string, 0, len(g.Sections))
	seen := make(map[string]bool, len(g.Sections))
	for _, name := range guidelineOrder {
		if _, ok := g.Sections[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range g.Sections {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Markdown flattens the guidelines into a markdown document: sections
// in display order, entries sorted by key so output is stable.
func (g Guidelines) Markdown() string {
	var b strings.Builder
	b.WriteString("# How students pass\n\n")

	for _, name := range g.SectionNames() {
		section := g.Sections[name]
		b.WriteString("## " + headingFor(name) + "\n\n")

		keys := make([]string, 0, len(section))
		for k := range section {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- **%s**: %v\n", headingFor(k), section[k]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// headingFor turns a snake_case key into a readable heading.
func headingFor(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
