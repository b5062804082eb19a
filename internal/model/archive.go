package model

import (
	"encoding/json"
	"time"
)

// ArchiveRecord is an obligation retired from the active set once its
// end date passed. The archive is append-only; records never re-enter
// the active set, and duplicate identities are permitted.
type ArchiveRecord struct {
	Obligation
	ArchivedAt time.Time `json:"archivedAt"`
}

// UnmarshalJSON decodes both the embedded obligation and the archive
// stamp. Without this the embedded Obligation.UnmarshalJSON would be
// promoted and ArchivedAt silently dropped.
func (r *ArchiveRecord) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Obligation); err != nil {
		return err
	}
	var stamp struct {
		ArchivedAt time.Time `json:"archivedAt"`
	}
	if err := json.Unmarshal(data, &stamp); err != nil {
		return err
	}
	r.ArchivedAt = stamp.ArchivedAt
	return nil
}
