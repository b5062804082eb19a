package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/duekeeper/internal/model"
)

func TestResolveIntervalDays(t *testing.T) {
	tests := []struct {
		name     string
		spec     Spec
		want     int
		wantErr  bool
		errMatch error
	}{
		{name: "monthly resolves to zero", spec: Spec{Monthly: true}, want: 0},
		{name: "quarterly preset", spec: Spec{Preset: PresetQuarterly}, want: 90},
		{name: "half-yearly preset", spec: Spec{Preset: PresetHalfYearly}, want: 180},
		{name: "yearly preset", spec: Spec{Preset: PresetYearly}, want: 365},
		{name: "custom days", spec: Spec{Days: 45}, want: 45},
		{name: "single day", spec: Spec{Days: 1}, want: 1},
		{name: "one month rounds to 30", spec: Spec{Months: 1}, want: 30},
		{name: "two months rounds to 61", spec: Spec{Months: 2}, want: 61},
		{name: "three months rounds to 91", spec: Spec{Months: 3}, want: 91},
		{name: "twelve months rounds to 365", spec: Spec{Months: 12}, want: 365},
		{name: "zero days rejected", spec: Spec{Days: 0}, wantErr: true, errMatch: ErrIntervalTooShort},
		{name: "negative days rejected", spec: Spec{Days: -7}, wantErr: true, errMatch: ErrIntervalTooShort},
		{name: "unknown preset rejected", spec: Spec{Preset: Preset("fortnightly")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveIntervalDays(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMatch != nil {
					assert.ErrorIs(t, err, tt.errMatch)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpecLabel(t *testing.T) {
	assert.Equal(t, "Monthly", Spec{Monthly: true}.Label())
	assert.Equal(t, "Quarterly", Spec{Preset: PresetQuarterly}.Label())
	assert.Equal(t, "Half-yearly", Spec{Preset: PresetHalfYearly}.Label())
	assert.Equal(t, "Yearly", Spec{Preset: PresetYearly}.Label())
	assert.Equal(t, "Every 2 months", Spec{Months: 2}.Label())
	assert.Equal(t, "Daily", Spec{Days: 1}.Label())
	assert.Equal(t, "Every 45 days", Spec{Days: 45}.Label())
}

func TestIntervalLabel(t *testing.T) {
	monthly := model.Obligation{Frequency: model.FrequencyMonthly, DueDay: 5}
	assert.Equal(t, "Monthly", IntervalLabel(monthly))

	quarterly := model.Obligation{Frequency: model.FrequencyPeriodic, IntervalDays: 90}
	assert.Equal(t, "Quarterly", IntervalLabel(quarterly))

	custom := model.Obligation{Frequency: model.FrequencyPeriodic, IntervalDays: 45}
	assert.Equal(t, "Every 45 days", IntervalLabel(custom))
}

func TestNextDueDate(t *testing.T) {
	t.Run("rolls across month boundaries", func(t *testing.T) {
		anchor := model.NewDate(2024, time.January, 1)
		got := NextDueDate(anchor, 90)
		assert.Equal(t, "2024-03-31", got.String())
	})

	t.Run("rolls across year boundaries", func(t *testing.T) {
		anchor := model.NewDate(2024, time.November, 15)
		got := NextDueDate(anchor, 90)
		assert.Equal(t, "2025-02-13", got.String())
	})
}
