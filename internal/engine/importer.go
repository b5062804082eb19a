package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshsymonds/duekeeper/internal/common"
	"github.com/joshsymonds/duekeeper/internal/model"
	"github.com/joshsymonds/duekeeper/internal/schedule"
)

// Payload is the export/import wire format. Older exports were a bare
// obligation array; Import accepts both.
type Payload struct {
	Active     []model.Obligation    `json:"active"`
	Archived   []model.ArchiveRecord `json:"archived"`
	ExportDate time.Time             `json:"exportDate"`
}

// ImportStats reports what an import merged.
type ImportStats struct {
	ActiveAdded   int
	ArchivedAdded int
	PaidPreserved int
}

// Export serializes the full dataset.
func (e *Engine) Export(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obligations, err := e.storage.GetObligations(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := e.storage.GetArchive(ctx)
	if err != nil {
		return nil, err
	}

	payload := Payload{
		Active:     obligations,
		Archived:   archive,
		ExportDate: e.clock.Now(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Import merges an exported payload into the existing data. Payment
// flags survive only when stamped for the current cycle; items whose
// end date already passed go straight to the archive. Additive: never
// replaces existing records.
func (e *Engine) Import(ctx context.Context, data []byte) (ImportStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sealGuard(); err != nil {
		return ImportStats{}, err
	}

	payload, err := parsePayload(data)
	if err != nil {
		return ImportStats{}, err
	}

	today := e.today()
	period := e.period()
	now := e.clock.Now()

	var stats ImportStats
	incomingArchive := payload.Archived

	var incomingActive []model.Obligation
	for _, o := range payload.Active {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.Frequency == model.FrequencyPeriodic && o.NextDueDate.IsZero() && !o.CycleAnchor.IsZero() {
			o.NextDueDate = schedule.NextDueDate(o.CycleAnchor, o.IntervalDays)
		}

		// Same-cycle reconciliation: a paid flag from the exporting
		// device is honored only when its cycle is still the active one.
		if o.Paid && o.PaidCycleID == cycleID(&o, period) {
			stats.PaidPreserved++
		} else {
			o.Paid = false
			o.PaidCycleID = ""
		}

		if o.Lapsed(today) {
			incomingArchive = append(incomingArchive, model.ArchiveRecord{
				Obligation: o,
				ArchivedAt: now,
			})
			continue
		}
		incomingActive = append(incomingActive, o)
	}

	if len(incomingActive) > 0 {
		existing, err := e.storage.GetObligations(ctx)
		if err != nil {
			return ImportStats{}, err
		}
		existing = append(existing, incomingActive...)
		if err := e.storage.SaveObligations(ctx, existing); err != nil {
			return ImportStats{}, fmt.Errorf("failed to save imported obligations: %w", err)
		}
		stats.ActiveAdded = len(incomingActive)
	}

	if len(incomingArchive) > 0 {
		archive, err := e.storage.GetArchive(ctx)
		if err != nil {
			return ImportStats{}, err
		}
		archive = append(archive, incomingArchive...)
		if err := e.storage.SaveArchive(ctx, archive); err != nil {
			return ImportStats{}, fmt.Errorf("failed to save imported archive: %w", err)
		}
		stats.ArchivedAdded = len(incomingArchive)
	}

	slog.Info("import merged",
		"active", stats.ActiveAdded, "archived", stats.ArchivedAdded, "paid_preserved", stats.PaidPreserved)
	return stats, nil
}

// parsePayload decodes the current payload shape, falling back to the
// legacy bare-array format.
func parsePayload(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err == nil && (payload.Active != nil || payload.Archived != nil) {
		return payload, nil
	}

	var legacy []model.Obligation
	if err := json.Unmarshal(data, &legacy); err == nil {
		return Payload{Active: legacy}, nil
	}

	return Payload{}, common.NewUserError("invalid import file format", common.ErrInvalidObligation)
}
