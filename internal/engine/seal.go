package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joshsymonds/duekeeper/internal/common"
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/service"
)

// Eligibility reasons surfaced to the user when a seal cannot start.
const (
	reasonNoActive    = "no active obligations"
	reasonAllSealed   = "all already sealed"
	reasonNothingPaid = "nothing unsealed is paid yet"
	reasonInFlight    = "sealing already in progress"
)

// SealStatus is a snapshot of the state machine for presentation.
type SealStatus struct {
	Phase     Phase
	Initiated bool
	// Remaining is the time left on the countdown or grace timer,
	// zero when idle.
	Remaining time.Duration
	State     model.SealState
}

// SealEligibility settles state and reports whether a seal may start,
// with a user-facing reason when it may not. Read-only: it never arms
// the state machine.
func (e *Engine) SealEligibility(ctx context.Context) (service.Eligibility, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eligibility(ctx)
}

// eligibility computes the seal gate on settled state. Callers must
// hold e.mu.
func (e *Engine) eligibility(ctx context.Context) (service.Eligibility, error) {
	if e.phase != PhaseIdle {
		return service.Eligibility{Reason: reasonInFlight}, nil
	}
	if err := e.settle(ctx); err != nil {
		return service.Eligibility{}, err
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return service.Eligibility{}, err
	}
	if len(obligations) == 0 {
		return service.Eligibility{Reason: reasonNoActive}, nil
	}

	period := e.period()
	sealValid := state.ValidFor(period)
	unsealed := 0
	unsealedPaid := 0
	for i := range obligations {
		if sealValid && state.Contains(obligations[i].Identity()) {
			continue
		}
		unsealed++
		if PaidInCycle(obligations[i], period) {
			unsealedPaid++
		}
	}

	switch {
	case unsealed == 0:
		return service.Eligibility{Reason: reasonAllSealed}, nil
	case unsealedPaid == 0:
		return service.Eligibility{Reason: reasonNothingPaid}, nil
	default:
		return service.Eligibility{Enabled: true}, nil
	}
}

// InitiateSeal opens the seal workflow: it checks eligibility and,
// when the gate passes, arms the state machine so ConfirmSeal may
// start the countdown.
func (e *Engine) InitiateSeal(ctx context.Context) (service.Eligibility, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return service.Eligibility{Reason: reasonInFlight},
			common.NewUserError(reasonInFlight, common.ErrSealInProgress)
	}

	elig, err := e.eligibility(ctx)
	if err != nil {
		return service.Eligibility{}, err
	}
	if !elig.Enabled {
		return elig, common.NewUserError(elig.Reason, common.ErrNotEligible)
	}

	e.initiated = true
	return elig, nil
}

// ConfirmSeal starts the countdown. Only reachable after InitiateSeal;
// the commit executes automatically once the countdown elapses unless
// AbortSeal runs first.
func (e *Engine) ConfirmSeal(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return common.NewUserError(reasonInFlight, common.ErrSealInProgress)
	}
	if !e.initiated {
		return common.NewUserError("seal not initiated", common.ErrSealNotActive)
	}

	// Re-check the gate: state may have rolled over since initiate.
	elig, err := e.eligibility(ctx)
	if err != nil {
		return err
	}
	if !elig.Enabled {
		e.initiated = false
		return common.NewUserError(elig.Reason, common.ErrNotEligible)
	}

	e.phase = PhaseCountdown
	e.deadline = e.clock.Now().Add(e.config.CountdownDelay)
	e.timer = e.scheduler.AfterFunc(e.config.CountdownDelay, func() {
		e.commitSeal(context.Background())
	})
	slog.Info("seal countdown started", "delay", e.config.CountdownDelay)
	return nil
}

// AbortSeal cancels a running countdown with zero side effects on the
// persisted seal state.
func (e *Engine) AbortSeal() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseCountdown {
		return common.NewUserError("no countdown to abort", common.ErrSealNotActive)
	}
	e.resetMachine()
	slog.Info("seal aborted during countdown")
	return nil
}

// commitSeal executes the seal once the countdown elapses: snapshot
// the prior state for undo, union every currently unsealed, currently
// paid obligation identity into the seal, persist, and open the grace
// window.
func (e *Engine) commitSeal(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// An abort that won the lock race already reset the machine.
	if e.phase != PhaseCountdown {
		return
	}

	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		slog.Error("seal commit failed to load state", "error", err)
		e.resetMachine()
		return
	}

	snapshot := state.Clone()
	period := e.period()

	var added []string
	for i := range obligations {
		o := &obligations[i]
		if o.Lapsed(e.today()) || !PaidInCycle(*o, period) {
			continue
		}
		if state.Add(o.Identity()) {
			added = append(added, o.Name)
		}
	}

	// Nothing qualified and no prior seal to extend: the month may have
	// rolled over mid-countdown. Drop the operation instead of
	// persisting an empty seal.
	if len(added) == 0 && !state.ValidFor(period) {
		e.resetMachine()
		slog.Info("seal commit found nothing to freeze, dropping", "period", period)
		return
	}

	now := e.clock.Now()
	state.Sealed = true
	state.SealedPeriod = period
	state.SealedAt = &now

	if err := e.storage.SaveSealState(ctx, state); err != nil {
		slog.Error("seal commit failed to persist", "error", err)
		e.resetMachine()
		return
	}

	e.undoSnapshot = &snapshot
	e.pendingFinalize = finalizeMessage(obligations, &state, period, added)
	e.phase = PhaseGrace
	e.deadline = now.Add(e.config.GraceDelay)
	e.timer = e.scheduler.AfterFunc(e.config.GraceDelay, e.finalizeSeal)
	slog.Info("seal committed, grace window open",
		"items", len(state.SealedItems), "added", len(added), "grace", e.config.GraceDelay)
}

// finalizeSeal closes the grace window: the seal becomes permanent for
// the period and the queued notification is emitted.
func (e *Engine) finalizeSeal() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// An undo that won the lock race already reset the machine.
	if e.phase != PhaseGrace {
		return
	}

	message := e.pendingFinalize
	e.resetMachine()
	slog.Info("seal finalized")
	if message != "" {
		e.notify(message)
	}
}

// UndoSeal cancels the grace timer and restores the seal state to the
// exact pre-commit snapshot, discarding the pending finalize message.
func (e *Engine) UndoSeal(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseGrace {
		return common.NewUserError("no seal to undo", common.ErrSealNotActive)
	}

	restored := e.undoSnapshot.Clone()
	if err := e.storage.SaveSealState(ctx, restored); err != nil {
		return fmt.Errorf("failed to restore seal state: %w", err)
	}
	e.resetMachine()
	slog.Info("seal undone during grace window")
	e.notify("Seal undone — obligations unlocked")
	return nil
}

// Status reports the machine's phase, remaining timer, and the
// persisted seal state.
func (e *Engine) Status(ctx context.Context) (SealStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.storage.GetSealState(ctx)
	if err != nil {
		return SealStatus{}, fmt.Errorf("failed to load seal state: %w", err)
	}

	status := SealStatus{
		Phase:     e.phase,
		Initiated: e.initiated,
		State:     state,
	}
	if e.phase != PhaseIdle {
		if remaining := e.deadline.Sub(e.clock.Now()); remaining > 0 {
			status.Remaining = remaining
		}
	}
	return status, nil
}

// AllSealed reports whether the active set is non-empty and every
// member's identity is frozen for the current period.
func (e *Engine) AllSealed(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.settle(ctx); err != nil {
		return false, err
	}
	obligations, state, err := e.loadWithSeal(ctx)
	if err != nil {
		return false, err
	}
	return allSealed(obligations, &state, e.period()), nil
}

// allSealed is the pure form of the predicate.
func allSealed(obligations []model.Obligation, state *model.SealState, period string) bool {
	if len(obligations) == 0 || !state.ValidFor(period) {
		return false
	}
	for i := range obligations {
		if !state.Contains(obligations[i].Identity()) {
			return false
		}
	}
	return true
}

// finalizeMessage builds the notification queued for the end of the
// grace window: celebratory when every active obligation is sealed,
// otherwise an itemized partial-seal message naming up to two items.
func finalizeMessage(obligations []model.Obligation, state *model.SealState, period string, added []string) string {
	if allSealed(obligations, state, period) {
		return fmt.Sprintf("All active obligations are sealed for %s 🎉", period)
	}

	count := len(added)
	if count == 0 {
		return fmt.Sprintf("Seal confirmed for %s — no new obligations added", period)
	}

	names := added
	var suffix string
	if len(names) > 2 {
		suffix = fmt.Sprintf(" +%d more", len(names)-2)
		names = names[:2]
	}
	plural := "obligations"
	if count == 1 {
		plural = "obligation"
	}
	return fmt.Sprintf("Partial seal: %d %s locked (%s%s)", count, plural, strings.Join(names, ", "), suffix)
}
