package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockTypeBlocking(t *testing.T) {
	tests := []struct {
		lock   LockType
		reads  bool
		writes bool
	}{
		{LockAccessExclusive, true, true},
		{LockShareRowExclusive, false, true},
		{LockShare, false, true},
		{LockShareUpdateExclusive, false, false},
		{LockNone, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.lock), func(t *testing.T) {
			assert.Equal(t, tt.reads, tt.lock.BlocksReads())
			assert.Equal(t, tt.writes, tt.lock.BlocksWrites())
		})
	}
}

func TestNewImpactDerivesBlocking(t *testing.T) {
	imp := NewImpact("users", RoleAltered, LockShareRowExclusive, DurationUntilCommit)
	assert.Equal(t, "users", imp.Table)
	assert.False(t, imp.BlocksReads)
	assert.True(t, imp.BlocksWrites)
	assert.Equal(t, DurationUntilCommit, imp.Duration)
}

func TestRiskLevelOrdering(t *testing.T) {
	assert.Less(t, RiskLow, RiskMedium)
	assert.Less(t, RiskMedium, RiskHigh)
	assert.Less(t, RiskHigh, RiskCritical)
}

func TestRiskLevelString(t *testing.T) {
	assert.Equal(t, "LOW", RiskLow.String())
	assert.Equal(t, "MEDIUM", RiskMedium.String())
	assert.Equal(t, "HIGH", RiskHigh.String())
	assert.Equal(t, "CRITICAL", RiskCritical.String())
}

func TestParseRiskLevel(t *testing.T) {
	for _, s := range []string{"low", "LOW", " Low "} {
		lvl, err := ParseRiskLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, RiskLow, lvl, s)
	}

	lvl, err := ParseRiskLevel("critical")
	require.NoError(t, err)
	assert.Equal(t, RiskCritical, lvl)

	_, err = ParseRiskLevel("severe")
	assert.Error(t, err)
}
