package whatif

import "github.com/0ritam/studentlens/internal/api"

// Event is a notification pushed on Engine.Events as state changes.
// UIs consume the stream to re-render; all payload pointers are shared
// with the engine and must be treated as read-only.
type Event interface{ isEvent() }

// BaselineEstablished reports a successful EstablishBaseline.
type BaselineEstablished struct {
	Prediction  *api.Prediction
	Explanation *api.Explanation
}

// RefreshStarted reports that settled edits were dispatched to the
// service.
type RefreshStarted struct {
	Seq uint64
}

// RefreshApplied carries the results of a completed refresh that won
// the staleness check.
type RefreshApplied struct {
	Seq         uint64
	Prediction  *api.Prediction
	Explanation *api.Explanation
	Changed     []string
}

// RefreshFailed reports a refresh whose service calls failed. Previous
// results stay visible alongside the error.
type RefreshFailed struct {
	Seq     uint64
	Message string
}

// EngineReset reports that Reset cleared the baseline and comparison
// state.
type EngineReset struct{}

func (BaselineEstablished) isEvent() {}
func (RefreshStarted) isEvent()      {}
func (RefreshApplied) isEvent()      {}
func (RefreshFailed) isEvent()       {}
func (EngineReset) isEvent()         {}
