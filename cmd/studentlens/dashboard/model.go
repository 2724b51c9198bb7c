package dashboard

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/config"
	"github.com/0ritam/studentlens/internal/logging"
	"github.com/0ritam/studentlens/internal/student"
	"github.com/0ritam/studentlens/internal/whatif"
)

// New assembles the dashboard model: API client, what-if engine, profile
// form prefilled with the sample student, and rendering components.
func New(cfg config.Config, styles ui.Styles) Model {
	client := api.New(cfg.API.BaseURL, cfg.API.Timeout())
	engine := whatif.New(client)

	form := newForm(styles)
	form.setRecord(student.Example())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	return Model{
		form:     form,
		viewport: vp,
		spinner:  sp,
		styles:   styles,
		renderer: newRenderer(styles, 80),
		viewMode: FormView,
		cfg:      cfg,
		client:   client,
		engine:   engine,
		log:      logging.Get(logging.CategoryDashboard),
	}
}

// newRenderer builds a markdown renderer sized to the given wrap width.
func newRenderer(styles ui.Styles, wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(wrap),
		)
	}
	return renderer
}

// Run starts the dashboard and blocks until the user quits.
func Run(cfg config.Config) error {
	styles := ui.NewStyles(ui.ThemeFromName(cfg.UI.Theme))
	m := New(cfg, styles)
	defer m.engine.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the spinner, the health probe and the engine event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.checkHealth(),
		m.waitForEngine(),
	)
}

// waitForEngine delivers the next what-if engine event. The handler
// re-issues it so the stream keeps flowing.
func (m Model) waitForEngine() tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg{event: <-m.engine.Events()}
	}
}

func (m Model) checkHealth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.API.Timeout())
		defer cancel()
		status, err := m.client.Health(ctx)
		return healthMsg{status: status, err: err}
	}
}

// establishBaseline fetches the prediction+explanation pair for rec and
// installs it as the comparison baseline.
func (m Model) establishBaseline(rec student.Record) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.API.Timeout())
		defer cancel()
		if err := m.engine.EstablishBaseline(ctx, rec); err != nil {
			return baselineErrMsg{err: err}
		}
		return baselineReadyMsg{}
	}
}

func (m Model) fetchGuidelines() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.API.Timeout())
		defer cancel()
		doc, err := m.client.PassGuidelines(ctx)
		return guidelinesMsg{doc: doc, err: err}
	}
}

func (m Model) savePlots(expl *api.Explanation, dir string) tea.Cmd {
	return func() tea.Msg {
		paths, err := expl.WritePlots(dir)
		return plotsSavedMsg{paths: paths, err: err}
	}
}

// currentExplanation returns the explanation the active view is showing:
// the modified one in what-if mode when present, the baseline otherwise.
func (m Model) currentExplanation() *api.Explanation {
	if m.viewMode == WhatIfView && m.snap.ModifiedExplanation != nil {
		return m.snap.ModifiedExplanation
	}
	return m.snap.BaselineExplanation
}

// busy reports whether anything is in flight, which keeps the spinner
// ticking.
func (m Model) busy() bool {
	return m.isLoading || m.snap.Loading
}

// logEvent records engine events at debug level for troubleshooting.
func (m Model) logEvent(ev whatif.Event) {
	switch ev := ev.(type) {
	case whatif.BaselineEstablished:
		m.log.Debug("baseline established")
	case whatif.RefreshStarted:
		m.log.Debug("refresh dispatched", zap.Uint64("seq", ev.Seq))
	case whatif.RefreshApplied:
		m.log.Debug("refresh applied",
			zap.Uint64("seq", ev.Seq),
			zap.Int("changed", len(ev.Changed)))
	case whatif.RefreshFailed:
		m.log.Debug("refresh failed",
			zap.Uint64("seq", ev.Seq),
			zap.String("error", ev.Message))
	case whatif.EngineReset:
		m.log.Debug("engine reset")
	}
}
