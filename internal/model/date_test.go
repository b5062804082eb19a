package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("calendar date", func(t *testing.T) {
		d, err := ParseDate("2024-06-15")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-15", d.String())
	})

	t.Run("RFC 3339 timestamps truncate to the day", func(t *testing.T) {
		d, err := ParseDate("2024-06-15T18:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, "2024-06-15", d.String())
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := ParseDate("June 15th")
		assert.Error(t, err)
	})
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)

	assert.Equal(t, "2024-02-29", d.AddDays(1).String(), "leap year")
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.DaysUntil(NewDate(2024, time.March, 1)))
	assert.Equal(t, -28, d.DaysUntil(NewDate(2024, time.January, 31)))
}

func TestDateJSON(t *testing.T) {
	type doc struct {
		When Date `json:"when"`
	}

	t.Run("round trip", func(t *testing.T) {
		out, err := json.Marshal(doc{When: NewDate(2024, time.June, 15)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"when":"2024-06-15"}`, string(out))

		var back doc
		require.NoError(t, json.Unmarshal(out, &back))
		assert.Equal(t, "2024-06-15", back.When.String())
	})

	t.Run("empty and null decode to zero", func(t *testing.T) {
		for _, raw := range []string{`{"when":""}`, `{"when":null}`} {
			var back doc
			require.NoError(t, json.Unmarshal([]byte(raw), &back))
			assert.True(t, back.When.IsZero(), raw)
		}
	})
}
