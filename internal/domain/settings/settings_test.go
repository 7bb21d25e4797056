package settings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateBrackets_RejectsDiscontinuity(t *testing.T) {
	brackets := Default().TaxBrackets
	brackets[2].BaseTax = decimal.NewFromInt(2000)

	err := ValidateBrackets(brackets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not continuous")
}

func TestValidateBrackets_RejectsUnsorted(t *testing.T) {
	brackets := Default().TaxBrackets
	brackets[1], brackets[2] = brackets[2], brackets[1]

	assert.Error(t, ValidateBrackets(brackets))
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	s := Default().Clone()
	s.Timezone = "Mars/Olympus"
	s.StandardMonthlyHours = decimal.Zero
	s.Overtime.CrossMidnight = "guess"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "standard_monthly_hours")
	assert.Contains(t, err.Error(), "overtime.cross_midnight")
}

func TestDateOf_UsesConfiguredTimezone(t *testing.T) {
	s := Default().Clone()
	s.Timezone = "Asia/Manila"

	// 2024-03-01 17:30 UTC is 2024-03-02 01:30 in Manila
	ts := time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), s.DateOf(ts))

	start := s.At(s.DateOf(ts), s.WorkStart)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), start.UTC())
}

func TestSettings_JSONRoundTrip(t *testing.T) {
	original := Default()
	raw, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"work_start":"08:00"`)

	var decoded Settings
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, original.WorkStart, decoded.WorkStart)
	assert.True(t, original.TaxBrackets[3].BaseTax.Equal(decoded.TaxBrackets[3].BaseTax))
	require.NoError(t, decoded.Validate())
}

func TestClone_IsIndependent(t *testing.T) {
	original := Default()
	c := original.Clone()
	c.LeaveEntitlements["vacation"] = 99
	c.TaxBrackets[0].Rate = decimal.NewFromInt(1)

	assert.Equal(t, 15, original.Entitlement("vacation"))
	assert.True(t, original.TaxBrackets[0].Rate.IsZero())
}
