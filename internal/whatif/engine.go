// Package whatif orchestrates the dashboard's comparison pipeline: it
// owns the baseline prediction, debounces field edits, refreshes the
// modified prediction and explanation concurrently, and drops responses
// that lose to a newer dispatch.
package whatif

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/0ritam/studentlens/internal/api"
	"github.com/0ritam/studentlens/internal/logging"
	"github.com/0ritam/studentlens/internal/student"
)

// DefaultDebounce is how long edits must settle before a refresh is
// dispatched.
const DefaultDebounce = 500 * time.Millisecond

// Client is the slice of the service API the engine needs.
type Client interface {
	Predict(ctx context.Context, rec student.Record) (*api.Prediction, error)
	Explain(ctx context.Context, rec student.Record) (*api.Explanation, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// Engine runs the what-if comparison. All exported methods are safe for
// concurrent use.
type Engine struct {
	client Client
	log    *zap.Logger
	delay  time.Duration

	ctx    context.Context // parent of every refresh call; Close cancels it
	cancel context.CancelFunc
	wg     sync.WaitGroup

	debounce *debouncer
	events   chan Event

	mu       sync.Mutex
	hasBase  bool
	baseline student.Record
	edited   student.Record
	basePred *api.Prediction
	baseExpl *api.Explanation
	modPred  *api.Prediction
	modExpl  *api.Explanation
	changed  []string
	loading  bool
	lastErr  string
	seq      uint64 // newest dispatched refresh
	applied  uint64 // newest refresh whose outcome was taken
}

// New returns an engine that issues service calls through client.
func New(client Client, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		client: client,
		log:    logging.Get(logging.CategoryWhatIf),
		delay:  DefaultDebounce,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.debounce = newDebouncer(e.delay)
	return e
}

// Events returns the engine's notification stream. The channel is
// buffered and never closed; stop consuming after Close.
func (e *Engine) Events() <-chan Event { return e.events }

// EstablishBaseline fetches the prediction and explanation for rec
// concurrently and installs them as the comparison baseline. On any
// failure the previous state is left untouched; there is no partial
// baseline. Any refresh still in flight for an older baseline is
// dropped when it lands.
func (e *Engine) EstablishBaseline(ctx context.Context, rec student.Record) error {
	pred, expl, err := e.fetchPair(ctx, rec)
	if err != nil {
		e.log.Warn("baseline fetch failed", zap.Int("student_id", rec.IDStudent), zap.Error(err))
		return err
	}

	e.mu.Lock()
	e.debounce.cancel()
	e.hasBase = true
	e.baseline = rec
	e.edited = rec
	e.basePred = pred
	e.baseExpl = expl
	e.modPred = nil
	e.modExpl = nil
	e.changed = nil
	e.loading = false
	e.lastErr = ""
	e.applied = e.seq
	e.mu.Unlock()

	e.emit(BaselineEstablished{Prediction: pred, Explanation: expl})
	e.log.Info("baseline established",
		zap.Int("student_id", rec.IDStudent),
		zap.String("prediction", string(pred.Prediction)))
	return nil
}

// ApplyEdit records the full edited record and schedules a refresh once
// edits settle. Each call replaces both the tracked record and any
// pending dispatch. Reports false, doing nothing, before a baseline
// exists. An edit identical to the baseline still refreshes; the
// comparison then shows no changes.
func (e *Engine) ApplyEdit(rec student.Record) bool {
	e.mu.Lock()
	if !e.hasBase {
		e.mu.Unlock()
		return false
	}
	e.edited = rec
	e.changed = student.Diff(e.baseline, rec)
	e.mu.Unlock()

	e.debounce.debounce(e.dispatchRefresh)
	return true
}

// Reset clears the baseline and all comparison state. A pending
// debounced dispatch is cancelled; responses already in flight are
// dropped when they arrive.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.debounce.cancel()
	e.hasBase = false
	e.baseline = student.Record{}
	e.edited = student.Record{}
	e.basePred = nil
	e.baseExpl = nil
	e.modPred = nil
	e.modExpl = nil
	e.changed = nil
	e.loading = false
	e.lastErr = ""
	e.applied = e.seq
	e.mu.Unlock()

	e.emit(EngineReset{})
	e.log.Info("reset")
}

// Close cancels in-flight refreshes and waits for their goroutines. The
// engine must not be used afterwards.
func (e *Engine) Close() {
	e.debounce.cancel()
	e.cancel()
	e.wg.Wait()
}

// Snapshot is a point-in-time copy of the engine state for rendering.
// Pointer fields are shared and must be treated as read-only.
type Snapshot struct {
	HasBaseline         bool
	Baseline            student.Record
	Edited              student.Record
	BaselinePrediction  *api.Prediction
	BaselineExplanation *api.Explanation
	ModifiedPrediction  *api.Prediction
	ModifiedExplanation *api.Explanation
	Changed             []string
	Loading             bool
	LastError           string
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		HasBaseline:         e.hasBase,
		Baseline:            e.baseline,
		Edited:              e.edited,
		BaselinePrediction:  e.basePred,
		BaselineExplanation: e.baseExpl,
		ModifiedPrediction:  e.modPred,
		ModifiedExplanation: e.modExpl,
		Changed:             append([]string(nil), e.changed...),
		Loading:             e.loading,
		LastError:           e.lastErr,
	}
}

// dispatchRefresh runs when the debounce timer fires: it stamps a new
// sequence number and fetches the pair for the settled record.
func (e *Engine) dispatchRefresh() {
	if e.ctx.Err() != nil {
		return
	}

	e.mu.Lock()
	rec := e.edited
	changed := append([]string(nil), e.changed...)
	e.seq++
	seq := e.seq
	e.loading = true
	e.mu.Unlock()

	e.emit(RefreshStarted{Seq: seq})
	e.log.Debug("refresh dispatched", zap.Uint64("seq", seq), zap.Strings("changed", changed))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		pred, expl, err := e.fetchPair(e.ctx, rec)
		e.finishRefresh(seq, changed, pred, expl, err)
	}()
}

// finishRefresh applies or drops one refresh outcome. A response loses
// when any newer dispatch has already finished: the newest dispatch
// wins regardless of arrival order, including failures.
func (e *Engine) finishRefresh(seq uint64, changed []string, pred *api.Prediction, expl *api.Explanation, err error) {
	e.mu.Lock()
	if seq <= e.applied {
		e.mu.Unlock()
		e.log.Debug("stale refresh dropped", zap.Uint64("seq", seq), zap.Uint64("applied", e.applied))
		return
	}
	e.applied = seq
	if seq == e.seq {
		e.loading = false
	}
	if err != nil {
		msg := api.UserMessage(err)
		e.lastErr = msg
		e.mu.Unlock()
		e.emit(RefreshFailed{Seq: seq, Message: msg})
		e.log.Warn("refresh failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	e.modPred = pred
	e.modExpl = expl
	e.lastErr = ""
	e.mu.Unlock()

	e.emit(RefreshApplied{Seq: seq, Prediction: pred, Explanation: expl, Changed: changed})
	e.log.Debug("refresh applied", zap.Uint64("seq", seq), zap.String("prediction", string(pred.Prediction)))
}

// fetchPair runs Predict and Explain concurrently; the first failure
// cancels the sibling call and fails the pair.
func (e *Engine) fetchPair(ctx context.Context, rec student.Record) (*api.Prediction, *api.Explanation, error) {
	var (
		pred *api.Prediction
		expl *api.Explanation
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.client.Predict(ctx, rec)
		if err != nil {
			return err
		}
		pred = p
		return nil
	})
	g.Go(func() error {
		x, err := e.client.Explain(ctx, rec)
		if err != nil {
			return err
		}
		expl = x
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return pred, expl, nil
}

// emit delivers ev unless the engine is closed.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}
