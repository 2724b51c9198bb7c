// Package rank orders explanation features for display. All functions
// are pure: they never mutate their inputs and always produce the same
// order for the same data regardless of map iteration order.
package rank

import (
	"math"
	"sort"

	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/student"
)

// Limit caps every ranking at the ten most influential features.
const Limit = 10

// Row is one line of the baseline-versus-modified comparison.
type Row struct {
	Feature  string
	Baseline float64
	Modified float64
	Change   float64 // Modified minus Baseline
	Edited   bool    // the student field behind this feature was edited
}

// Comparison merges the SHAP attributions of two explanations into
// ranked rows. The row set is the union of both feature name sets, with
// an absent side contributing zero. Rows sort by |Change| descending;
// ties break on ascending feature name so output is stable across map
// iteration order. A nil explanation counts as having no attributions.
func Comparison(baseline, modified *api.Explanation, changed []string) []Row {
	base := weightsOf(baseline)
	mod := weightsOf(modified)

	names := make(map[string]struct{}, len(base)+len(mod))
	for name := range base {
		names[name] = struct{}{}
	}
	for name := range mod {
		names[name] = struct{}{}
	}

	rows := make([]Row, 0, len(names))
	for name := range names {
		b := base[name]
		m := mod[name]
		rows = append(rows, Row{
			Feature:  name,
			Baseline: b,
			Modified: m,
			Change:   m - b,
			Edited:   student.Contains(changed, name),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := math.Abs(rows[i].Change), math.Abs(rows[j].Change)
		if ci != cj {
			return ci > cj
		}
		return rows[i].Feature < rows[j].Feature
	})
	return truncate(rows)
}

// Feature is a named explainer weight.
type Feature struct {
	Name  string
	Value float64
}

// TopSHAP ranks the SHAP attributions of a single explanation by
// absolute value, largest first, ties on ascending name.
func TopSHAP(e *api.Explanation) []Feature {
	return topWeights(weightsOf(e))
}

// TopLIME ranks the LIME surrogate weights the same way TopSHAP ranks
// SHAP attributions.
func TopLIME(e *api.Explanation) []Feature {
	if e == nil {
		return nil
	}
	return topWeights(e.Details.Lime.TopFeatures)
}

// TopImportance returns the service's combined importance ranking,
// capped at Limit. The service already orders it by importance; the
// stable re-sort only guards against a misbehaving response.
func TopImportance(e *api.Explanation) []api.FeatureImportance {
	if e == nil {
		return nil
	}
	out := make([]api.FeatureImportance, len(e.FeatureImportance))
	copy(out, e.FeatureImportance)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return truncate(out)
}

func topWeights(weights api.FeatureWeights) []Feature {
	out := make([]Feature, 0, len(weights))
	for name, value := range weights {
		out = append(out, Feature{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Value), math.Abs(out[j].Value)
		if ai != aj {
			return ai > aj
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out)
}

func weightsOf(e *api.Explanation) api.FeatureWeights {
	if e == nil {
		return nil
	}
	return e.SHAPValues
}

func truncate[T any](s []T) []T {
	if len(s) > Limit {
		return s[:Limit]
	}
	return s
}
