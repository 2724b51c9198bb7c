// Package dashboard tests drive the Update loop directly with tea
// messages against a stub prediction service.
package dashboard

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/config"
	"github.com/0ritam/studentlens/internal/student"
	"github.com/0ritam/studentlens/internal/whatif"
)

const (
	testHealthBody = `{"status":"healthy","model_loaded":true,"version":"1.0.0","timestamp":"2025-06-01T10:00:00"}`

	testPredictBody = `{
		"prediction": "Pass",
		"probabilities": {"Distinction": 0.15, "Pass": 0.62, "Fail": 0.18, "Withdrawn": 0.05},
		"confidence": 0.62,
		"student_id": 11391
	}`

	testExplainBody = `{
		"student_id": 11391,
		"prediction": "Pass",
		"shap_values": {"total_clicks": 0.42, "avg_assessment_score": 0.31, "studied_credits": -0.12},
		"lime_explanation": {
			"shap": {"total_clicks": 0.42, "avg_assessment_score": 0.31, "studied_credits": -0.12},
			"lime": {"top_features": {"total_clicks": 0.38}, "intercept": 0.2, "local_prediction": 0.61},
			"plots": {"shap": {}, "lime": {}}
		},
		"feature_importance": [
			{"feature": "total_clicks", "importance": 0.4, "direction": "positive", "shap_value": 0.42, "lime_value": 0.38}
		]
	}`

	testGuidelinesBody = `{"guidelines": {
		"high_priority_factors": {"engagement": "high engagement with VLE materials (>1000 clicks)"},
		"engagement_metrics": {"total_clicks": "aim for 1000+"},
		"academic_performance": {"avg_assessment_score": "above 60"},
		"demographics_that_help": {"highest_education": "HE Qualification"},
		"example_pass_profile": {"total_clicks": 1500.5}
	}}`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testHealthBody)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testPredictBody)
	})
	mux.HandleFunc("/explain", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testExplainBody)
	})
	mux.HandleFunc("/guidelines", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testGuidelinesBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTestModel builds a model against the stub service, already sized.
func newTestModel(t *testing.T, baseURL string) Model {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.TimeoutMS = 2000

	m := New(cfg, ui.NewStyles(ui.LightTheme()))
	t.Cleanup(m.engine.Close)

	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(Model)
}

func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	model, _ := m.Update(msg)
	return model.(Model)
}

func pressRune(t *testing.T, m Model, r rune) Model {
	t.Helper()
	return apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// establishBaseline runs the submit command synchronously and feeds the
// result back through Update.
func establishBaseline(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.establishBaseline(student.Example())()
	if err, bad := msg.(baselineErrMsg); bad {
		t.Fatalf("baseline failed: %v", err.err)
	}
	return apply(t, m, msg)
}

func TestUpdate_WindowSize(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	if !m.ready {
		t.Fatal("model not ready after first window size")
	}
	if m.width != 120 || m.height != 40 {
		t.Errorf("size = %dx%d, want 120x40", m.width, m.height)
	}
}

func TestUpdate_WindowSize_Tiny(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	m = apply(t, m, tea.WindowSizeMsg{Width: 0, Height: 0})
	if m.viewport.Width < 1 || m.viewport.Height < 1 {
		t.Errorf("viewport collapsed to %dx%d", m.viewport.Width, m.viewport.Height)
	}
	_ = m.View()
}

func TestSubmitShowsResults(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	m = establishBaseline(t, m)

	if m.viewMode != ResultsView {
		t.Fatalf("viewMode = %v, want ResultsView", m.viewMode)
	}
	if m.isLoading {
		t.Error("still loading after baseline")
	}
	if m.snap.BaselinePrediction == nil || m.snap.BaselineExplanation == nil {
		t.Fatal("snapshot missing baseline results")
	}

	view := m.View()
	for _, want := range []string{"Pass", "Outcome probabilities", "Top SHAP factors", "Combined importance"} {
		if !strings.Contains(view, want) {
			t.Errorf("results view missing %q", want)
		}
	}
}

func TestSubmitFailureStaysOnForm(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"HTTPException","message":"model exploded","detail":"model exploded"}`)
	}))
	t.Cleanup(srv.Close)
	m := newTestModel(t, srv.URL)

	msg := m.establishBaseline(student.Example())()
	errMsg, bad := msg.(baselineErrMsg)
	if !bad {
		t.Fatalf("expected baselineErrMsg, got %T", msg)
	}
	m = apply(t, m, msg)

	if m.viewMode != FormView {
		t.Errorf("viewMode = %v, want FormView", m.viewMode)
	}
	if m.err == nil {
		t.Fatal("error not kept for display")
	}
	if api.KindOf(errMsg.err) != api.KindServer {
		t.Errorf("error kind = %v, want KindServer", api.KindOf(errMsg.err))
	}
	if !strings.Contains(m.View(), "model exploded") {
		t.Error("status line does not show the failure")
	}
}

func TestWhatIfFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)
	m = establishBaseline(t, m)

	m = pressRune(t, m, 'w')
	if m.viewMode != WhatIfView {
		t.Fatalf("viewMode = %v, want WhatIfView", m.viewMode)
	}
	if m.whatIfForm == nil {
		t.Fatal("what-if form not created")
	}
	if rec, errs := m.whatIfForm.record(); len(errs) > 0 || rec != student.Example() {
		t.Fatalf("what-if form not seeded from baseline: %+v (%v)", rec, errs)
	}

	// Edit through the engine and pump its events like Init's listener
	// would.
	modified := student.Example()
	modified.TotalClicks = 2000
	if !m.engine.ApplyEdit(modified) {
		t.Fatal("ApplyEdit rejected despite baseline")
	}

	deadline := time.After(5 * time.Second)
	for {
		var applied bool
		select {
		case ev := <-m.engine.Events():
			m = apply(t, m, engineEventMsg{event: ev})
			_, applied = ev.(whatif.RefreshApplied)
		case <-deadline:
			t.Fatal("refresh never applied")
		}
		if applied {
			break
		}
	}

	if m.snap.ModifiedPrediction == nil {
		t.Fatal("modified prediction missing after refresh")
	}
	if len(m.snap.Changed) != 1 || m.snap.Changed[0] != student.FieldTotalClicks {
		t.Errorf("changed = %v, want [total_clicks]", m.snap.Changed)
	}
	if !m.whatIfForm.changed[student.FieldTotalClicks] {
		t.Error("edited field not marked on the form")
	}

	view := m.View()
	for _, want := range []string{"Baseline", "What-if", "1 edited", "Feature impact shifts"} {
		if !strings.Contains(view, want) {
			t.Errorf("what-if view missing %q", want)
		}
	}
}

func TestWhatIfRevert(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)
	m = establishBaseline(t, m)
	m = pressRune(t, m, 'w')

	m.whatIfForm.fields[0].value = "ZZZ"
	m = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	if rec, _ := m.whatIfForm.record(); rec != student.Example() {
		t.Errorf("revert did not restore the baseline: %+v", rec)
	}
	if !strings.Contains(m.status, "reverted") {
		t.Errorf("status = %q after revert", m.status)
	}
}

func TestNewStudentResetsEngine(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)
	m = establishBaseline(t, m)

	m = pressRune(t, m, 'n')
	if m.viewMode != FormView {
		t.Fatalf("viewMode = %v, want FormView", m.viewMode)
	}
	if m.snap.HasBaseline {
		t.Error("engine still has a baseline after reset")
	}
}

func TestGuidelinesFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)
	m = establishBaseline(t, m)

	m = pressRune(t, m, 'g')
	if !m.isLoading {
		t.Fatal("pressing g should start the fetch")
	}

	msg := m.fetchGuidelines()()
	m = apply(t, m, msg)

	if m.viewMode != GuidelinesView {
		t.Fatalf("viewMode = %v, want GuidelinesView", m.viewMode)
	}
	md := m.guidelinesMD
	if !strings.Contains(md, "# How students pass") {
		t.Error("markdown missing title")
	}
	first := strings.Index(md, "High priority factors")
	last := strings.Index(md, "Example pass profile")
	if first < 0 || last < 0 || first > last {
		t.Errorf("sections out of order: high=%d example=%d", first, last)
	}

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewMode != ResultsView {
		t.Errorf("esc returned to %v, want ResultsView", m.viewMode)
	}
}

func TestHelpToggle(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.viewMode != HelpView {
		t.Fatalf("F1 did not open help, mode=%v", m.viewMode)
	}
	if !strings.Contains(m.View(), "toggle this help page") {
		t.Error("help content not rendered")
	}

	m = apply(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.viewMode != FormView {
		t.Errorf("F1 did not return to form, mode=%v", m.viewMode)
	}
}

func TestHealthBadge(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	msg := m.checkHealth()()
	m = apply(t, m, msg)
	if !strings.Contains(m.View(), "model ready 1.0.0") {
		t.Error("healthy badge not shown")
	}

	m = apply(t, m, healthMsg{err: &api.Error{Kind: api.KindUnreachable, Op: "health check", Detail: "service unreachable"}})
	if !strings.Contains(m.View(), "offline") {
		t.Error("offline badge not shown")
	}
}

func TestPlotsSavedStatus(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	m = apply(t, m, plotsSavedMsg{paths: []string{"plots/a.png", "plots/b.png"}})
	if !strings.Contains(m.status, "saved 2 plots") {
		t.Errorf("status = %q", m.status)
	}

	m = apply(t, m, plotsSavedMsg{err: errors.New("mkdir plots: permission denied")})
	if m.err == nil {
		t.Error("plot failure not surfaced")
	}
}

func TestSpinnerOnlyTicksWhileBusy(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	m := newTestModel(t, srv.URL)

	_, cmd := m.Update(m.spinner.Tick())
	if cmd != nil {
		t.Error("idle model kept the spinner ticking")
	}
}
