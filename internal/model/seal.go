package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SealItem is one frozen obligation identity inside a seal snapshot.
type SealItem struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	AnchorKey string          `json:"anchorKey"`
}

// Equal compares identities field by field. Amounts compare by value,
// not representation, so "100" and "100.00" match.
func (i SealItem) Equal(other SealItem) bool {
	return i.Name == other.Name &&
		i.AnchorKey == other.AnchorKey &&
		i.Amount.Equal(other.Amount)
}

// SealState is the process-wide seal snapshot for the current period.
//
// Sealed implies SealedPeriod is set and SealedItems is non-empty. A
// seal is only honored while SealedPeriod matches the wall-clock
// period; once the month advances it is logically expired even before
// the reconciler physically clears it.
type SealState struct {
	Sealed       bool       `json:"sealed"`
	SealedPeriod string     `json:"sealedPeriod,omitempty"`
	SealedAt     *time.Time `json:"sealedAt,omitempty"`
	SealedItems  []SealItem `json:"sealedItems"`
}

// Contains reports whether the identity is already frozen.
func (s *SealState) Contains(item SealItem) bool {
	for _, existing := range s.SealedItems {
		if existing.Equal(item) {
			return true
		}
	}
	return false
}

// Add unions an identity into the snapshot, skipping duplicates.
// Returns true if the item was appended.
func (s *SealState) Add(item SealItem) bool {
	if s.Contains(item) {
		return false
	}
	s.SealedItems = append(s.SealedItems, item)
	return true
}

// Clone returns a deep copy suitable for undo snapshots.
func (s *SealState) Clone() SealState {
	clone := SealState{
		Sealed:       s.Sealed,
		SealedPeriod: s.SealedPeriod,
	}
	if s.SealedAt != nil {
		at := *s.SealedAt
		clone.SealedAt = &at
	}
	if s.SealedItems != nil {
		clone.SealedItems = make([]SealItem, len(s.SealedItems))
		copy(clone.SealedItems, s.SealedItems)
	}
	return clone
}

// Clear resets the state to unsealed.
func (s *SealState) Clear() {
	*s = SealState{}
}

// ValidFor reports whether the seal applies to the given period.
func (s *SealState) ValidFor(period string) bool {
	return s.Sealed && s.SealedPeriod == period
}
