package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/rank"
	"github.com/0ritam/studentlens/internal/student"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderStatusLine(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" studentlens ")
	mode := m.styles.Badge.Render(m.modeTitle())

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		mode,
		"  ",
		m.renderHealth(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) modeTitle() string {
	switch m.viewMode {
	case FormView:
		return "Student profile"
	case ResultsView:
		return "Prediction"
	case WhatIfView:
		return "What-if"
	case GuidelinesView:
		return "Pass guidelines"
	case HelpView:
		return "Help"
	}
	return ""
}

func (m Model) renderHealth() string {
	var badge string
	switch {
	case m.healthErr != "":
		badge = m.styles.Error.Render("● offline")
	case m.health == nil:
		badge = m.styles.Muted.Render("● checking")
	case m.health.Healthy():
		badge = m.styles.Success.Render("● model ready " + m.health.Version)
	default:
		badge = m.styles.Warning.Render("● model loading")
	}
	return badge + " " + m.styles.Muted.Render(m.client.BaseURL())
}

// renderStatusLine always occupies one line so the layout stays stable.
func (m Model) renderStatusLine() string {
	switch {
	case m.err != nil:
		return " " + m.styles.Error.Render("✗ "+api.UserMessage(m.err))
	case m.busy():
		text := m.status
		if text == "" {
			text = "working"
		}
		return " " + m.spinner.View() + " " + m.styles.Muted.Render(text)
	case m.status != "":
		return " " + m.styles.Muted.Render(m.status)
	}
	return ""
}

func (m Model) renderFooter() string {
	var keys string
	switch m.viewMode {
	case FormView:
		keys = "Up/Down: field | Left/Right: options | Ctrl+S: predict | Ctrl+E: sample | Ctrl+R: clear | F1: help | Esc: quit"
	case ResultsView:
		keys = "w: what-if | g: guidelines | p: save plots | n: new student | ?: help | q: quit"
	case WhatIfView:
		keys = "Up/Down: field | Left/Right: options | Ctrl+R: revert | Ctrl+P: save plots | Esc: back"
	case GuidelinesView, HelpView:
		keys = "Up/Down: scroll | Esc: back"
	}
	return lipgloss.NewStyle().MarginTop(1).Render(m.styles.Footer.Render(keys))
}

// =============================================================================
// RESULTS VIEW
// =============================================================================

func (m Model) renderResults() string {
	snap := m.snap
	if snap.BaselinePrediction == nil {
		return m.styles.Muted.Render("No prediction yet. Fill in the form and press Ctrl+S.")
	}
	pred := snap.BaselinePrediction

	sections := []string{
		m.renderOutcomeCard("Predicted outcome", pred),
		"",
		m.renderProbabilities(pred, nil),
	}

	if expl := snap.BaselineExplanation; expl != nil {
		shap := m.weightTable("Top SHAP factors", rank.TopSHAP(expl))
		lime := m.weightTable("Top LIME factors", rank.TopLIME(expl))
		if m.width >= 110 && shap != "" && lime != "" {
			sections = append(sections, "", lipgloss.JoinHorizontal(lipgloss.Top, shap, "   ", lime))
		} else {
			sections = append(sections, "", shap, "", lime)
		}
		if combined := m.importanceTable(expl); combined != "" {
			sections = append(sections, "", combined)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderOutcomeCard(title string, pred *api.Prediction) string {
	outcome := m.styles.Outcome(string(pred.Prediction)).Render(string(pred.Prediction))
	confidence := m.styles.Subtitle.Render(fmt.Sprintf("%.1f%% confidence", pred.Confidence*100))

	return m.styles.Panel.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render(fmt.Sprintf("%s, student %d", title, pred.StudentID)),
		lipgloss.JoinHorizontal(lipgloss.Center, outcome, "  ", confidence),
	))
}

// renderProbabilities draws one bar per outcome class. When base is
// given, each line also shows the shift against it in percent points.
func (m Model) renderProbabilities(pred, base *api.Prediction) string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Outcome probabilities") + "\n")
	for _, class := range api.Outcomes() {
		p := pred.Probabilities[class]
		label := m.styles.Outcome(string(class)).Render(fmt.Sprintf("%-12s", class))
		line := fmt.Sprintf("%s %s %5.1f%%", label, ui.Bar(p, 1, 24), p*100)
		if base != nil {
			delta := (p - base.Probabilities[class]) * 100
			if delta != 0 {
				line += m.styles.Muted.Render(fmt.Sprintf("  (%+.1f)", delta))
			}
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) weightTable(title string, feats []rank.Feature) string {
	if len(feats) == 0 {
		return ""
	}
	var maxAbs float64
	for _, ft := range feats {
		if v := abs(ft.Value); v > maxAbs {
			maxAbs = v
		}
	}
	tbl := ui.NewTable(title, "Feature", "Weight", "")
	for _, ft := range feats {
		tbl.AddRow(fieldLabel(ft.Name), fmt.Sprintf("%+.4f", ft.Value), ui.SignedBar(ft.Value, maxAbs, 7))
	}
	return tbl.View(m.styles)
}

func (m Model) importanceTable(expl *api.Explanation) string {
	rows := rank.TopImportance(expl)
	if len(rows) == 0 {
		return ""
	}
	tbl := ui.NewTable("Combined importance", "Feature", "Importance", "Direction")
	for _, r := range rows {
		dir := "▼ negative"
		if r.Direction == "positive" {
			dir = "▲ positive"
		}
		tbl.AddRow(fieldLabel(r.Feature), fmt.Sprintf("%.4f", r.Importance), dir)
	}
	return tbl.View(m.styles)
}

// =============================================================================
// WHAT-IF VIEW
// =============================================================================

func (m Model) renderWhatIf() string {
	if m.whatIfForm == nil || m.snap.BaselinePrediction == nil {
		return m.styles.Muted.Render("Establish a baseline prediction first.")
	}

	formCol := m.whatIfForm.View()
	comparison := m.renderComparison()

	if m.width < lipgloss.Width(formCol)+40 {
		return lipgloss.JoinVertical(lipgloss.Left, formCol, "", comparison)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, formCol, "  ", comparison)
}

func (m Model) renderComparison() string {
	snap := m.snap
	base := snap.BaselinePrediction
	mod := snap.ModifiedPrediction

	baseCard := m.styles.Panel.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.styles.Title.Render("Baseline"),
		m.outcomeLine(base),
	))

	var modCard string
	if mod == nil {
		modCard = m.styles.Panel.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.Title.Render("What-if"),
			m.styles.Muted.Render("edit a field to compare"),
		))
	} else {
		// A failed refresh leaves the card showing stale numbers, so it
		// drops back to the plain border until a comparison lands.
		cardStyle := m.styles.FocusedPanel
		if snap.LastError != "" {
			cardStyle = m.styles.Panel
		}
		modCard = cardStyle.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.Title.Render("What-if"),
			m.outcomeLine(mod),
		))
	}

	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, baseCard, " ", modCard),
	}

	if len(snap.Changed) > 0 {
		labels := make([]string, len(snap.Changed))
		for i, name := range snap.Changed {
			labels[i] = fieldLabel(name)
		}
		badge := m.styles.ChangedBadge.Render(fmt.Sprintf(" %d edited ", len(snap.Changed)))
		sections = append(sections, "", badge+" "+m.styles.Muted.Render(strings.Join(labels, ", ")))
	}

	if snap.LastError != "" {
		sections = append(sections, "",
			m.styles.Error.Render("✗ "+snap.LastError),
			m.styles.Muted.Render("showing the last successful comparison"))
	}

	if mod != nil {
		sections = append(sections, "", m.renderProbabilities(mod, base))
	} else {
		sections = append(sections, "", m.renderProbabilities(base, nil))
	}

	if snap.ModifiedExplanation != nil {
		if tbl := m.shiftTable(); tbl != "" {
			sections = append(sections, "", tbl)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) outcomeLine(pred *api.Prediction) string {
	outcome := m.styles.Outcome(string(pred.Prediction)).Render(string(pred.Prediction))
	return lipgloss.JoinHorizontal(lipgloss.Center,
		outcome,
		m.styles.Muted.Render(fmt.Sprintf("  %.1f%%", pred.Confidence*100)))
}

// shiftTable ranks how much each feature's SHAP weight moved between
// the baseline and the what-if run. Edited fields carry a Δ marker.
func (m Model) shiftTable() string {
	rows := rank.Comparison(m.snap.BaselineExplanation, m.snap.ModifiedExplanation, m.snap.Changed)
	if len(rows) == 0 {
		return ""
	}
	var maxAbs float64
	for _, r := range rows {
		if v := abs(r.Change); v > maxAbs {
			maxAbs = v
		}
	}
	tbl := ui.NewTable("Feature impact shifts", "Feature", "Baseline", "What-if", "Change", "")
	for _, r := range rows {
		name := fieldLabel(r.Feature)
		if r.Edited {
			name = "Δ " + name
		}
		tbl.AddRow(
			name,
			fmt.Sprintf("%+.4f", r.Baseline),
			fmt.Sprintf("%+.4f", r.Modified),
			fmt.Sprintf("%+.4f", r.Change),
			ui.SignedBar(r.Change, maxAbs, 6),
		)
	}
	return tbl.View(m.styles)
}

// =============================================================================
// GUIDELINES AND HELP
// =============================================================================

// renderMarkdown renders markdown with panic recovery; glamour can
// panic on odd terminal metrics.
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderHelp() string {
	type binding struct{ key, desc string }

	section := func(title string, bindings []binding) string {
		var b strings.Builder
		b.WriteString(m.styles.GroupHeading.Render(title) + "\n")
		for _, bd := range bindings {
			b.WriteString("  " + m.styles.Bold.Render(fmt.Sprintf("%-12s", bd.key)) + m.styles.Muted.Render(bd.desc) + "\n")
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(section("Global", []binding{
		{"Ctrl+C", "quit from anywhere"},
		{"F1", "toggle this help page"},
	}))
	b.WriteString(section("Student profile", []binding{
		{"Up/Down", "move between fields"},
		{"Tab/Enter", "next field"},
		{"Left/Right", "cycle categorical options"},
		{"Ctrl+S", "submit and predict"},
		{"Ctrl+E", "load the sample student"},
		{"Ctrl+R", "clear the form"},
		{"Esc", "quit"},
	}))
	b.WriteString(section("Prediction", []binding{
		{"w", "open the what-if comparison"},
		{"g", "show pass guidelines"},
		{"p", "save explanation plots as PNG"},
		{"n / Esc", "start over with a new student"},
		{"q", "quit"},
	}))
	b.WriteString(section("What-if", []binding{
		{"Up/Down", "move between fields"},
		{"Left/Right", "cycle categorical options"},
		{"Ctrl+R", "revert all edits to the baseline"},
		{"Ctrl+P", "save plots for the modified student"},
		{"Esc", "back to the prediction"},
	}))
	b.WriteString(section("Guidelines and help", []binding{
		{"Up/Down", "scroll"},
		{"Esc / q", "go back"},
	}))
	return b.String()
}

// fieldLabel maps a feature's JSON name to its human label. Unknown
// names (engineered features that are not form fields) pass through.
func fieldLabel(name string) string {
	if spec, ok := student.Lookup(name); ok {
		return spec.Label
	}
	return name
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
