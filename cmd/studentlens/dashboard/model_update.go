package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/student"
	"github.com/0ritam/studentlens/internal/whatif"
)

// plotsDir is where the dashboard writes explanation PNGs.
const plotsDir = "plots"

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case healthMsg:
		if msg.err != nil {
			m.health = nil
			m.healthErr = api.UserMessage(msg.err)
		} else {
			m.health = msg.status
			m.healthErr = ""
		}
		return m, nil

	case baselineReadyMsg:
		m.isLoading = false
		m.status = ""
		m.err = nil
		m.snap = m.engine.Snapshot()
		m.viewMode = ResultsView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil

	case baselineErrMsg:
		m.isLoading = false
		m.status = ""
		m.err = msg.err
		return m, nil

	case engineEventMsg:
		return m.handleEngineEvent(msg.event)

	case guidelinesMsg:
		m.isLoading = false
		m.status = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.guidelines = msg.doc
		m.guidelinesMD = msg.doc.Markdown()
		m.viewMode = GuidelinesView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil

	case plotsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("saved %d plots to %s/", len(msg.paths), plotsDir)
		return m, nil
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Chrome: header line + divider, status line, blank + footer keys.
	headerHeight := 2
	statusHeight := 1
	footerHeight := 2

	vpWidth := msg.Width
	if vpWidth < 1 {
		vpWidth = 1
	}
	vpHeight := msg.Height - headerHeight - statusHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}

	m.renderer = newRenderer(m.styles, msg.Width-8)
	m.syncViewport()
	return m, nil
}

func (m Model) handleEngineEvent(ev whatif.Event) (tea.Model, tea.Cmd) {
	m.logEvent(ev)
	m.snap = m.engine.Snapshot()

	switch ev.(type) {
	case whatif.RefreshStarted:
		m.status = "refreshing comparison"
	case whatif.RefreshApplied:
		m.status = ""
		m.err = nil
	case whatif.RefreshFailed:
		m.status = ""
	case whatif.BaselineEstablished, whatif.EngineReset:
		m.status = ""
	}

	if m.whatIfForm != nil {
		m.whatIfForm.setChanged(m.snap.Changed)
	}
	m.syncViewport()

	cmds := []tea.Cmd{m.waitForEngine()}
	if m.busy() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keybindings
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyF1:
		if m.viewMode == HelpView {
			m.viewMode = m.returnView
		} else {
			m.returnView = m.viewMode
			m.viewMode = HelpView
			m.viewport.GotoTop()
		}
		m.syncViewport()
		return m, nil
	}

	switch m.viewMode {
	case FormView:
		return m.updateFormKeys(msg)
	case ResultsView:
		return m.updateResultsKeys(msg)
	case WhatIfView:
		return m.updateWhatIfKeys(msg)
	case GuidelinesView, HelpView:
		return m.updateDocKeys(msg)
	}
	return m, nil
}

func (m Model) updateFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyCtrlE:
		m.form.setRecord(student.Example())
		m.err = nil
		m.status = "sample student loaded"
		m.syncViewport()
		return m, nil

	case tea.KeyCtrlR:
		m.form.setRecord(student.Record{})
		m.err = nil
		m.status = "form cleared"
		m.syncViewport()
		return m, nil

	case tea.KeyCtrlS:
		return m.submitForm()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	_, cmd := m.form.Update(msg)
	m.err = nil
	m.status = ""
	m.syncViewport()
	m.ensureVisible(m.form.focusLine())
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	rec, errs := m.form.record()
	m.syncViewport()
	if len(errs) > 0 {
		m.status = fmt.Sprintf("fix %d highlighted fields before predicting", len(errs))
		return m, nil
	}
	m.err = nil
	m.isLoading = true
	m.status = "contacting prediction service"
	return m, tea.Batch(m.spinner.Tick, m.establishBaseline(rec))
}

func (m Model) updateResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "w":
		if !m.snap.HasBaseline {
			return m, nil
		}
		m.whatIfForm = newForm(m.styles)
		m.whatIfForm.setRecord(m.snap.Edited)
		m.whatIfForm.setChanged(m.snap.Changed)
		m.viewMode = WhatIfView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil

	case "g":
		return m.openGuidelines()

	case "p":
		if expl := m.snap.BaselineExplanation; expl != nil {
			return m, m.savePlots(expl, plotsDir)
		}
		return m, nil

	case "?":
		m.returnView = m.viewMode
		m.viewMode = HelpView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil

	case "n", "esc":
		m.engine.Reset()
		m.snap = m.engine.Snapshot()
		m.whatIfForm = nil
		m.err = nil
		m.status = ""
		m.viewMode = FormView
		m.viewport.GotoTop()
		m.syncViewport()
		m.ensureVisible(m.form.focusLine())
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) openGuidelines() (tea.Model, tea.Cmd) {
	m.returnView = m.viewMode
	if m.guidelines != nil {
		m.viewMode = GuidelinesView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil
	}
	m.isLoading = true
	m.status = "fetching pass guidelines"
	return m, tea.Batch(m.spinner.Tick, m.fetchGuidelines())
}

func (m Model) updateWhatIfKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.viewMode = ResultsView
		m.viewport.GotoTop()
		m.syncViewport()
		return m, nil

	case tea.KeyCtrlR:
		m.whatIfForm.setRecord(m.snap.Baseline)
		m.engine.ApplyEdit(m.snap.Baseline)
		m.status = "edits reverted to baseline"
		m.syncViewport()
		return m, nil

	case tea.KeyCtrlP:
		if expl := m.currentExplanation(); expl != nil {
			return m, m.savePlots(expl, plotsDir)
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	changed, cmd := m.whatIfForm.Update(msg)
	if changed {
		if rec, errs := m.whatIfForm.record(); len(errs) == 0 {
			m.engine.ApplyEdit(rec)
		}
	}
	m.syncViewport()
	m.ensureVisible(m.whatIfForm.focusLine())
	return m, cmd
}

func (m Model) updateDocKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.viewMode = m.returnView
		m.viewport.GotoTop()
		m.syncViewport()
		if m.viewMode == FormView {
			m.ensureVisible(m.form.focusLine())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// syncViewport re-renders the active view's body into the viewport.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	switch m.viewMode {
	case FormView:
		m.viewport.SetContent(m.form.View())
	case ResultsView:
		m.viewport.SetContent(m.renderResults())
	case WhatIfView:
		m.viewport.SetContent(m.renderWhatIf())
	case GuidelinesView:
		m.viewport.SetContent(m.renderMarkdown(m.guidelinesMD))
	case HelpView:
		m.viewport.SetContent(m.renderHelp())
	}
}

// ensureVisible scrolls the viewport just enough to keep line on screen.
func (m *Model) ensureVisible(line int) {
	if !m.ready {
		return
	}
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}
