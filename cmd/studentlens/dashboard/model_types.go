// Package dashboard provides the interactive TUI for exploring student
// outcome predictions: a profile form, prediction results with SHAP/LIME
// breakdowns, a live what-if comparison view, and the pass guidelines page.
package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/0ritam/studentlens/cmd/studentlens/ui"
	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/config"
	"github.com/0ritam/studentlens/internal/whatif"
)

// ViewMode determines which screen is displayed.
type ViewMode int

const (
	FormView ViewMode = iota
	ResultsView
	WhatIfView
	GuidelinesView
	HelpView
)

// Model is the main TUI model, holding all application state.
type Model struct {
	// UI components
	form       *Form
	whatIfForm *Form
	viewport   viewport.Model
	spinner    spinner.Model
	styles     ui.Styles
	renderer   *glamour.TermRenderer

	// Current view mode
	viewMode ViewMode

	// returnView remembers which screen opened the help or guidelines
	// page, so Esc goes back where the user came from.
	returnView ViewMode

	// Backend
	cfg    config.Config
	client *api.Client
	engine *whatif.Engine
	log    *zap.Logger

	// Service state
	health    *api.HealthStatus
	healthErr string

	// snap mirrors the engine state after every event; views render
	// from it rather than locking the engine.
	snap whatif.Snapshot

	// Guidelines page content, fetched once on demand.
	guidelines   *api.Guidelines
	guidelinesMD string

	// UI state
	isLoading bool
	status    string
	err       error
	width     int
	height    int
	ready     bool
}

// Messages for tea updates
type (
	healthMsg struct {
		status *api.HealthStatus
		err    error
	}

	baselineReadyMsg struct{}

	baselineErrMsg struct{ err error }

	// engineEventMsg wraps one event from the what-if engine stream.
	engineEventMsg struct{ event whatif.Event }

	guidelinesMsg struct {
		doc *api.Guidelines
		err error
	}

	plotsSavedMsg struct {
		paths []string
		err   error
	}
)
