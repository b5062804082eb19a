package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/duekeeper/internal/common"
)

func TestSealEligibility(t *testing.T) {
	ctx := context.Background()

	t.Run("no active obligations", func(t *testing.T) {
		h := newTestEngine(t, midJune())

		elig, err := h.engine.SealEligibility(ctx)
		require.NoError(t, err)
		assert.False(t, elig.Enabled)
		assert.Equal(t, "no active obligations", elig.Reason)
	})

	t.Run("nothing paid", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		h.mustAdd(t, monthlyObligation("Rent", 5))

		elig, err := h.engine.SealEligibility(ctx)
		require.NoError(t, err)
		assert.False(t, elig.Enabled)
		assert.Equal(t, "nothing unsealed is paid yet", elig.Reason)
	})

	t.Run("one unsealed paid enables", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		paid := h.mustAdd(t, monthlyObligation("Rent", 5))
		h.mustAdd(t, monthlyObligation("Internet", 1))
		require.NoError(t, h.engine.MarkPaid(ctx, paid.ID))

		elig, err := h.engine.SealEligibility(ctx)
		require.NoError(t, err)
		assert.True(t, elig.Enabled)
		assert.Empty(t, elig.Reason)
	})

	t.Run("all already sealed", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		stored := h.mustAdd(t, monthlyObligation("Rent", 5))
		require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))
		sealAndFinalize(t, h)

		elig, err := h.engine.SealEligibility(ctx)
		require.NoError(t, err)
		assert.False(t, elig.Enabled)
		assert.Equal(t, "all already sealed", elig.Reason)
	})

	t.Run("in flight", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		stored := h.mustAdd(t, monthlyObligation("Rent", 5))
		require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))
		startCountdown(t, h)

		elig, err := h.engine.SealEligibility(ctx)
		require.NoError(t, err)
		assert.False(t, elig.Enabled)
		assert.Equal(t, "sealing already in progress", elig.Reason)
	})
}

// startCountdown runs initiate+confirm, leaving the countdown armed.
func startCountdown(t *testing.T, h *testHarness) {
	t.Helper()
	ctx := context.Background()
	_, err := h.engine.InitiateSeal(ctx)
	require.NoError(t, err)
	require.NoError(t, h.engine.ConfirmSeal(ctx))
}

// sealAndFinalize drives a seal all the way through both timers.
func sealAndFinalize(t *testing.T, h *testHarness) {
	t.Helper()
	startCountdown(t, h)
	h.clock.Advance(3 * time.Second)
	h.clock.Advance(5 * time.Second)

	status, err := h.engine.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, PhaseIdle, status.Phase)
	require.True(t, status.State.Sealed)
}

func TestSealWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		paid := h.mustAdd(t, monthlyObligation("Rent", 5))
		h.mustAdd(t, monthlyObligation("Internet", 1))
		require.NoError(t, h.engine.MarkPaid(ctx, paid.ID))

		startCountdown(t, h)

		status, err := h.engine.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, PhaseCountdown, status.Phase)
		assert.Equal(t, 3*time.Second, status.Remaining)
		assert.False(t, status.State.Sealed, "nothing persists until the countdown elapses")

		h.clock.Advance(3 * time.Second)

		status, err = h.engine.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, PhaseGrace, status.Phase)
		assert.True(t, status.State.Sealed)
		assert.Equal(t, "2024-06", status.State.SealedPeriod)
		require.NotNil(t, status.State.SealedAt)
		require.Len(t, status.State.SealedItems, 1, "only paid obligations are frozen")
		assert.True(t, status.State.SealedItems[0].Equal(paid.Identity()))

		locked, err := h.engine.IsLocked(ctx, paid.ID)
		require.NoError(t, err)
		assert.True(t, locked)

		h.clock.Advance(5 * time.Second)

		status, err = h.engine.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, PhaseIdle, status.Phase)
		assert.True(t, status.State.Sealed, "the seal persists after finalize")
		assert.Contains(t, h.notifier.Last(), "Partial seal: 1 obligation locked (Rent)")
	})

	t.Run("celebratory message when everything seals", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		a := h.mustAdd(t, monthlyObligation("Rent", 5))
		b := h.mustAdd(t, monthlyObligation("Internet", 1))
		require.NoError(t, h.engine.MarkPaid(ctx, a.ID))
		require.NoError(t, h.engine.MarkPaid(ctx, b.ID))

		sealAndFinalize(t, h)

		assert.Equal(t, "All active obligations are sealed for 2024-06 🎉", h.notifier.Last())

		allSealed, err := h.engine.AllSealed(ctx)
		require.NoError(t, err)
		assert.True(t, allSealed)
	})

	t.Run("confirm requires initiate", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		stored := h.mustAdd(t, monthlyObligation("Rent", 5))
		require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

		assert.ErrorIs(t, h.engine.ConfirmSeal(ctx), common.ErrSealNotActive)
	})

	t.Run("initiate rejects when not eligible", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		h.mustAdd(t, monthlyObligation("Rent", 5))

		_, err := h.engine.InitiateSeal(ctx)
		assert.ErrorIs(t, err, common.ErrNotEligible)
	})
}

func TestSealAbort(t *testing.T) {
	ctx := context.Background()
	h := newTestEngine(t, midJune())
	stored := h.mustAdd(t, monthlyObligation("Rent", 5))
	require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

	startCountdown(t, h)
	require.NoError(t, h.engine.AbortSeal())

	status, err := h.engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, status.Phase)
	assert.False(t, status.State.Sealed, "abort leaves no trace")

	// The cancelled timer must not fire later.
	h.clock.Advance(10 * time.Second)
	status, err = h.engine.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.State.Sealed)

	t.Run("abort outside countdown fails", func(t *testing.T) {
		assert.ErrorIs(t, h.engine.AbortSeal(), common.ErrSealNotActive)
	})
}

func TestSealUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the pre-commit snapshot exactly", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		a := h.mustAdd(t, monthlyObligation("Rent", 5))
		b := h.mustAdd(t, monthlyObligation("Internet", 1))
		require.NoError(t, h.engine.MarkPaid(ctx, a.ID))

		// First seal: Rent only.
		sealAndFinalize(t, h)
		before, err := h.storage.GetSealState(ctx)
		require.NoError(t, err)

		// Second seal adds Internet, then gets undone.
		require.NoError(t, h.engine.MarkPaid(ctx, b.ID))
		startCountdown(t, h)
		h.clock.Advance(3 * time.Second)

		mid, err := h.storage.GetSealState(ctx)
		require.NoError(t, err)
		require.Len(t, mid.SealedItems, 2)

		require.NoError(t, h.engine.UndoSeal(ctx))

		after, err := h.storage.GetSealState(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after, "undo must restore the exact prior snapshot")
		assert.Equal(t, "Seal undone — obligations unlocked", h.notifier.Last())

		status, err := h.engine.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, PhaseIdle, status.Phase)
	})

	t.Run("undo suppresses the finalize notification", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		stored := h.mustAdd(t, monthlyObligation("Rent", 5))
		require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

		startCountdown(t, h)
		h.clock.Advance(3 * time.Second)
		require.NoError(t, h.engine.UndoSeal(ctx))

		h.clock.Advance(10 * time.Second)
		for _, msg := range h.notifier.Messages {
			assert.NotContains(t, msg, "sealed for")
			assert.NotContains(t, msg, "Partial seal")
		}
	})

	t.Run("undo outside grace fails", func(t *testing.T) {
		h := newTestEngine(t, midJune())
		assert.ErrorIs(t, h.engine.UndoSeal(ctx), common.ErrSealNotActive)
	})
}

func TestSealUnion(t *testing.T) {
	ctx := context.Background()
	h := newTestEngine(t, midJune())
	a := h.mustAdd(t, monthlyObligation("Rent", 5))
	b := h.mustAdd(t, monthlyObligation("Internet", 1))
	require.NoError(t, h.engine.MarkPaid(ctx, a.ID))

	sealAndFinalize(t, h)

	require.NoError(t, h.engine.MarkPaid(ctx, b.ID))
	sealAndFinalize(t, h)

	state, err := h.storage.GetSealState(ctx)
	require.NoError(t, err)
	require.Len(t, state.SealedItems, 2, "re-sealing unions, never duplicates")
	assert.True(t, state.Contains(a.Identity()))
	assert.True(t, state.Contains(b.Identity()))
}

func TestSealGuardsMutations(t *testing.T) {
	ctx := context.Background()
	h := newTestEngine(t, midJune())
	stored := h.mustAdd(t, monthlyObligation("Rent", 5))
	other := h.mustAdd(t, monthlyObligation("Internet", 1))
	require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

	startCountdown(t, h)

	t.Run("add rejected mid-flight", func(t *testing.T) {
		_, err := h.engine.AddObligation(ctx, monthlyObligation("New", 3))
		assert.ErrorIs(t, err, common.ErrSealInProgress)
	})

	t.Run("update rejected mid-flight", func(t *testing.T) {
		_, err := h.engine.UpdateObligation(ctx, stored.ID, monthlyObligation("Rent", 6))
		assert.ErrorIs(t, err, common.ErrSealInProgress)
	})

	t.Run("delete rejected mid-flight", func(t *testing.T) {
		assert.ErrorIs(t, h.engine.DeleteObligation(ctx, stored.ID), common.ErrSealInProgress)
	})

	t.Run("payment toggles silently ignored mid-flight", func(t *testing.T) {
		require.NoError(t, h.engine.MarkPaid(ctx, other.ID))

		got, err := h.storage.GetObligations(ctx)
		require.NoError(t, err)
		for _, o := range got {
			if o.ID == other.ID {
				assert.False(t, o.Paid)
			}
		}
	})
}

func TestSealedObligationEdits(t *testing.T) {
	ctx := context.Background()
	h := newTestEngine(t, midJune())
	stored := h.mustAdd(t, monthlyObligation("Rent", 5))
	free := h.mustAdd(t, monthlyObligation("Internet", 1))
	require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

	sealAndFinalize(t, h)

	t.Run("sealed identity rejects edits", func(t *testing.T) {
		_, err := h.engine.UpdateObligation(ctx, stored.ID, monthlyObligation("Rent", 6))
		assert.ErrorIs(t, err, common.ErrObligationLocked)
	})

	t.Run("sealed identity rejects deletion", func(t *testing.T) {
		assert.ErrorIs(t, h.engine.DeleteObligation(ctx, stored.ID), common.ErrObligationLocked)
	})

	t.Run("sealed identity ignores payment toggles", func(t *testing.T) {
		require.NoError(t, h.engine.UnmarkPaid(ctx, stored.ID))

		got, err := h.storage.GetObligations(ctx)
		require.NoError(t, err)
		assert.True(t, got[0].Paid, "sealed payment state is frozen")
	})

	t.Run("unsealed obligations stay editable", func(t *testing.T) {
		_, err := h.engine.UpdateObligation(ctx, free.ID, monthlyObligation("Internet", 2))
		assert.NoError(t, err)
	})
}

func TestSealExpiresOnPeriodRollover(t *testing.T) {
	ctx := context.Background()
	h := newTestEngine(t, midJune())
	stored := h.mustAdd(t, monthlyObligation("Rent", 5))
	require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

	sealAndFinalize(t, h)

	// Jump to July, simulating a restart in the next period.
	h.clock.SetNow(time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC))

	t.Run("lock releases lazily before any tick", func(t *testing.T) {
		locked, err := h.engine.IsLocked(ctx, stored.ID)
		require.NoError(t, err)
		assert.False(t, locked, "a seal from June has no force in July")
	})

	t.Run("tick clears the stale seal", func(t *testing.T) {
		require.NoError(t, h.engine.Tick(ctx))

		state, err := h.storage.GetSealState(ctx)
		require.NoError(t, err)
		assert.False(t, state.Sealed)
		assert.Empty(t, state.SealedItems)
		assert.Equal(t, "New month 2024-07 — previous seal released, obligations unlocked", h.notifier.Last())
	})

	t.Run("payment flags reset for the new month", func(t *testing.T) {
		got, err := h.storage.GetObligations(ctx)
		require.NoError(t, err)
		assert.False(t, got[0].Paid)
	})
}

func TestSealCountdownRollover(t *testing.T) {
	// A month boundary crossing during the countdown drops the whole
	// operation rather than sealing the old period.
	ctx := context.Background()
	h := newTestEngine(t, time.Date(2024, time.June, 30, 23, 59, 58, 0, time.UTC))
	stored := h.mustAdd(t, monthlyObligation("Rent", 5))
	require.NoError(t, h.engine.MarkPaid(ctx, stored.ID))

	startCountdown(t, h)

	// The countdown fires at 00:00:01 on July 1; the June payment no
	// longer counts and there is no prior seal to extend.
	h.clock.Advance(3 * time.Second)

	status, err := h.engine.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseIdle, status.Phase)
	assert.False(t, status.State.Sealed, "no empty seal may persist")
}
