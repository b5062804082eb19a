// Package engine implements the obligation cycle and commitment
// sealing engine: cycle reconciliation, archive migration, and the
// two-phase seal workflow.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshsymonds/duekeeper/internal/common"
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/schedule"
	"github.com/joshsymonds/duekeeper/internal/service"
)

// Phase is the seal state machine's current state.
type Phase string

const (
	// PhaseIdle means no seal operation is in flight.
	PhaseIdle Phase = "idle"
	// PhaseCountdown is the abortable delay before a seal commits.
	PhaseCountdown Phase = "countdown"
	// PhaseGrace is the undo window after a seal commits.
	PhaseGrace Phase = "grace"
)

// Engine orchestrates obligations, archival, and sealing. All public
// operations serialize on an internal mutex; timer callbacks re-enter
// through the same mutex, so the coarse-grained read-compute-write
// discipline holds even on a multi-threaded host.
type Engine struct {
	mu        sync.Mutex
	storage   service.Storage
	clock     service.Clock
	scheduler service.Scheduler
	notifier  service.Notifier
	config    Config

	phase           Phase
	initiated       bool
	timer           service.TimerHandle
	deadline        time.Time
	undoSnapshot    *model.SealState
	pendingFinalize string
}

// New creates an engine on the real clock with default configuration.
func New(storage service.Storage, notifier service.Notifier) *Engine {
	return NewWithConfig(storage, systemClock{}, systemScheduler{}, notifier, DefaultConfig())
}

// NewWithConfig creates an engine with explicit collaborators. Nil
// clock and scheduler fall back to the system ones; a nil notifier
// drops all notifications.
func NewWithConfig(storage service.Storage, clock service.Clock, scheduler service.Scheduler, notifier service.Notifier, config Config) *Engine {
	if clock == nil {
		clock = systemClock{}
	}
	if scheduler == nil {
		scheduler = systemScheduler{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if config.CountdownDelay <= 0 {
		config.CountdownDelay = DefaultConfig().CountdownDelay
	}
	if config.GraceDelay <= 0 {
		config.GraceDelay = DefaultConfig().GraceDelay
	}
	if config.NotifyDuration <= 0 {
		config.NotifyDuration = DefaultConfig().NotifyDuration
	}
	return &Engine{
		storage:   storage,
		clock:     clock,
		scheduler: scheduler,
		notifier:  notifier,
		config:    config,
		phase:     PhaseIdle,
	}
}

func (e *Engine) today() model.Date {
	return model.DateOf(e.clock.Now())
}

func (e *Engine) period() string {
	return schedule.Period(e.clock.Now())
}

func (e *Engine) notify(message string) {
	e.notifier.Notify(message, e.config.NotifyDuration)
}

// Tick runs one reconciliation pass: cycle rollover, archive
// migration, then seal expiry, in that order. It is idempotent and
// safe to run redundantly; the caller picks the cadence.
func (e *Engine) Tick(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settle(ctx)
}

// settle reconciles obligations and the seal with the wall clock.
// Callers must hold e.mu. Every render and every seal eligibility
// decision happens on settled state.
func (e *Engine) settle(ctx context.Context) error {
	today := e.today()
	period := e.period()

	obligations, err := e.storage.GetObligations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load obligations: %w", err)
	}

	changed := rollover(obligations, today, period, e.config.CatchUp)
	active, lapsed := splitLapsed(obligations, today, e.clock.Now())

	if changed || len(lapsed) > 0 {
		if err := e.storage.SaveObligations(ctx, active); err != nil {
			return fmt.Errorf("failed to save obligations: %w", err)
		}
	}

	if len(lapsed) > 0 {
		archive, err := e.storage.GetArchive(ctx)
		if err != nil {
			return fmt.Errorf("failed to load archive: %w", err)
		}
		archive = append(archive, lapsed...)
		if err := e.storage.SaveArchive(ctx, archive); err != nil {
			return fmt.Errorf("failed to save archive: %w", err)
		}
		slog.Info("archived lapsed obligations", "count", len(lapsed))
	}

	return e.expireSeal(ctx, period)
}

// expireSeal clears the seal the moment its period falls behind the
// wall clock. Callers must hold e.mu.
func (e *Engine) expireSeal(ctx context.Context, period string) error {
	state, err := e.storage.GetSealState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load seal state: %w", err)
	}
	if !state.Sealed || state.SealedPeriod == period {
		return nil
	}

	expired := state.SealedPeriod
	state.Clear()
	if err := e.storage.SaveSealState(ctx, state); err != nil {
		return fmt.Errorf("failed to clear expired seal: %w", err)
	}

	// A countdown or grace window left over from the old period is
	// meaningless now; drop it along with any pending finalize message.
	if e.phase != PhaseIdle {
		e.resetMachine()
	}

	slog.Info("seal expired on period rollover", "sealed_period", expired, "period", period)
	e.notify(fmt.Sprintf("New month %s — previous seal released, obligations unlocked", period))
	return nil
}

// resetMachine returns the state machine to idle, cancelling any
// pending timer. Callers must hold e.mu.
func (e *Engine) resetMachine() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.phase = PhaseIdle
	e.initiated = false
	e.deadline = time.Time{}
	e.undoSnapshot = nil
	e.pendingFinalize = ""
}

// sealGuard rejects mutations while a seal operation is mid-flight.
// Callers must hold e.mu.
func (e *Engine) sealGuard() error {
	if e.phase != PhaseIdle {
		return common.NewUserError("cannot modify obligations while sealing is in progress", common.ErrSealInProgress)
	}
	return nil
}

// AddObligation validates and stores a new obligation, assigning a
// surrogate ID when absent.
func (e *Engine) AddObligation(ctx context.Context, o model.Obligation) (model.Obligation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sealGuard(); err != nil {
		return model.Obligation{}, err
	}
	if err := prepare(&o); err != nil {
		return model.Obligation{}, err
	}
	o.Paid = false
	o.PaidCycleID = ""

	obligations, err := e.storage.GetObligations(ctx)
	if err != nil {
		return model.Obligation{}, fmt.Errorf("failed to load obligations: %w", err)
	}
	obligations = append(obligations, o)
	if err := e.storage.SaveObligations(ctx, obligations); err != nil {
		return model.Obligation{}, fmt.Errorf("failed to save obligations: %w", err)
	}

	slog.Info("obligation added", "name", o.Name, "frequency", o.Frequency)
	return o, nil
}

// UpdateObligation replaces an obligation's fields, preserving its
// payment state for the current cycle. Sealed obligations reject edits
// until period rollover.
func (e *Engine) UpdateObligation(ctx context.Context, id uuid.UUID, updated model.Obligation) (model.Obligation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sealGuard(); err != nil {
		return model.Obligation{}, err
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return model.Obligation{}, err
	}

	idx := findObligation(obligations, id)
	if idx < 0 {
		return model.Obligation{}, common.NewUserError("obligation not found", common.ErrNotFound)
	}
	existing := obligations[idx]
	if e.identityLocked(&existing, &state) {
		return model.Obligation{}, common.NewUserError(
			fmt.Sprintf("%q is sealed for %s and cannot be edited until next month", existing.Name, state.SealedPeriod),
			common.ErrObligationLocked)
	}

	updated.ID = existing.ID
	updated.Paid = existing.Paid
	updated.PaidCycleID = existing.PaidCycleID
	if err := prepare(&updated); err != nil {
		return model.Obligation{}, err
	}

	obligations[idx] = updated
	if err := e.storage.SaveObligations(ctx, obligations); err != nil {
		return model.Obligation{}, fmt.Errorf("failed to save obligations: %w", err)
	}
	return updated, nil
}

// DeleteObligation removes an obligation. Sealed obligations reject
// deletion until period rollover.
func (e *Engine) DeleteObligation(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sealGuard(); err != nil {
		return err
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return err
	}

	idx := findObligation(obligations, id)
	if idx < 0 {
		return common.NewUserError("obligation not found", common.ErrNotFound)
	}
	if e.identityLocked(&obligations[idx], &state) {
		return common.NewUserError(
			fmt.Sprintf("%q is sealed for %s and cannot be deleted until next month", obligations[idx].Name, state.SealedPeriod),
			common.ErrObligationLocked)
	}

	obligations = append(obligations[:idx], obligations[idx+1:]...)
	if err := e.storage.SaveObligations(ctx, obligations); err != nil {
		return fmt.Errorf("failed to save obligations: %w", err)
	}
	return nil
}

// MarkPaid flags an obligation paid for its active cycle. The call is
// idempotent, and a silent no-op while the obligation is sealed or a
// seal operation is mid-flight.
func (e *Engine) MarkPaid(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return nil
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return err
	}
	idx := findObligation(obligations, id)
	if idx < 0 {
		return common.NewUserError("obligation not found", common.ErrNotFound)
	}
	o := &obligations[idx]
	if e.identityLocked(o, &state) {
		return nil
	}

	period := e.period()
	if PaidInCycle(*o, period) {
		return nil
	}
	o.Paid = true
	o.PaidCycleID = cycleID(o, period)
	if err := e.storage.SaveObligations(ctx, obligations); err != nil {
		return fmt.Errorf("failed to save obligations: %w", err)
	}

	e.notify(fmt.Sprintf("Payment recorded: %s", o.Name))
	return nil
}

// UnmarkPaid clears an obligation's paid flag. A silent no-op while
// the obligation is sealed or a seal operation is mid-flight.
func (e *Engine) UnmarkPaid(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return nil
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return err
	}
	idx := findObligation(obligations, id)
	if idx < 0 {
		return common.NewUserError("obligation not found", common.ErrNotFound)
	}
	o := &obligations[idx]
	if e.identityLocked(o, &state) {
		return nil
	}
	if !o.Paid && o.PaidCycleID == "" {
		return nil
	}

	o.Paid = false
	o.PaidCycleID = ""
	if err := e.storage.SaveObligations(ctx, obligations); err != nil {
		return fmt.Errorf("failed to save obligations: %w", err)
	}
	return nil
}

// IsLocked reports whether an obligation's identity is frozen by a
// seal valid for the current period. Expired seals unlock lazily: once
// the period advances this returns false without any explicit unseal.
func (e *Engine) IsLocked(ctx context.Context, id uuid.UUID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return false, err
	}
	idx := findObligation(obligations, id)
	if idx < 0 {
		return false, common.NewUserError("obligation not found", common.ErrNotFound)
	}
	return e.identityLocked(&obligations[idx], &state), nil
}

// ObligationView bundles an obligation with the derived state a
// presentation layer needs to render it.
type ObligationView struct {
	model.Obligation
	DueNow        bool
	PaidInCycle   bool
	Locked        bool
	DaysRemaining int
	Urgency       schedule.Urgency
	CadenceLabel  string
}

// Obligations settles state and returns the active set with derived
// render state.
func (e *Engine) Obligations(ctx context.Context) ([]ObligationView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settle(ctx); err != nil {
		return nil, err
	}
	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return nil, err
	}

	today := e.today()
	period := e.period()
	views := make([]ObligationView, 0, len(obligations))
	for _, o := range obligations {
		views = append(views, ObligationView{
			Obligation:    o,
			DueNow:        DueNow(o, today),
			PaidInCycle:   PaidInCycle(o, period),
			Locked:        e.identityLocked(&o, &state),
			DaysRemaining: schedule.DaysRemaining(o.EndDate, today),
			Urgency:       schedule.EndDateUrgency(o.EndDate, today, o.Category),
			CadenceLabel:  schedule.IntervalLabel(o),
		})
	}
	return views, nil
}

// Archived returns the archive collection, newest first not guaranteed;
// records appear in append order.
func (e *Engine) Archived(ctx context.Context) ([]model.ArchiveRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settle(ctx); err != nil {
		return nil, err
	}
	return e.storage.GetArchive(ctx)
}

// loadWithSeal fetches the obligation set and seal state together.
// Callers must hold e.mu.
func (e *Engine) loadWithSeal(ctx context.Context) ([]model.Obligation, model.SealState, error) {
	obligations, err := e.storage.GetObligations(ctx)
	if err != nil {
		return nil, model.SealState{}, fmt.Errorf("failed to load obligations: %w", err)
	}
	state, err := e.storage.GetSealState(ctx)
	if err != nil {
		return nil, model.SealState{}, fmt.Errorf("failed to load seal state: %w", err)
	}
	return obligations, state, nil
}

// identityLocked applies the per-obligation seal lock. Callers must
// hold e.mu.
func (e *Engine) identityLocked(o *model.Obligation, state *model.SealState) bool {
	return state.ValidFor(e.period()) && state.Contains(o.Identity())
}

// findObligation returns the index of the obligation with the given
// surrogate ID, or -1.
func findObligation(obligations []model.Obligation, id uuid.UUID) int {
	for i := range obligations {
		if obligations[i].ID == id {
			return i
		}
	}
	return -1
}

// prepare validates an obligation and fills derived fields: surrogate
// ID, and the first due date of periodic items.
func prepare(o *model.Obligation) error {
	if o.Name == "" {
		return common.NewUserError("obligation name is required", common.ErrInvalidObligation)
	}
	if !o.Amount.IsPositive() {
		return common.NewUserError("amount must be positive", common.ErrInvalidObligation)
	}
	if o.Kind == "" {
		o.Kind = model.KindFixedExpense
	}
	if o.Category == "" {
		o.Category = model.CategoryDebt
	}

	switch o.Frequency {
	case "", model.FrequencyMonthly:
		o.Frequency = model.FrequencyMonthly
		if o.DueDay < 1 || o.DueDay > 31 {
			return common.NewUserError("monthly obligations need a due day between 1 and 31", common.ErrInvalidObligation)
		}
		o.IntervalDays = 0
		o.CycleAnchor = model.Date{}
		o.NextDueDate = model.Date{}
	case model.FrequencyPeriodic:
		if o.IntervalDays < 1 {
			return common.NewUserError("interval must be at least 1 day", schedule.ErrIntervalTooShort)
		}
		if o.CycleAnchor.IsZero() {
			return common.NewUserError("periodic obligations need a cycle anchor date", common.ErrMissingAnchor)
		}
		if o.NextDueDate.IsZero() {
			o.NextDueDate = schedule.NextDueDate(o.CycleAnchor, o.IntervalDays)
		}
		o.DueDay = 0
	default:
		return common.NewUserError(fmt.Sprintf("unknown frequency %q", o.Frequency), common.ErrInvalidFrequency)
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
