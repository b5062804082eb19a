package engine

import (
	"time"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// splitLapsed partitions the active set into obligations still in their
// validity window and records for those whose end date fell strictly
// before today. The archive is purely additive: duplicate identities
// are not reconciled.
func splitLapsed(obligations []model.Obligation, today model.Date, now time.Time) ([]model.Obligation, []model.ArchiveRecord) {
	active := make([]model.Obligation, 0, len(obligations))
	var lapsed []model.ArchiveRecord

	for _, o := range obligations {
		if o.Lapsed(today) {
			lapsed = append(lapsed, model.ArchiveRecord{
				Obligation: o,
				ArchivedAt: now,
			})
			continue
		}
		active = append(active, o)
	}
	return active, lapsed
}
