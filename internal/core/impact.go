package core

import (
	"fmt"
	"strings"
)

// LockType is a PostgreSQL table-level lock mode.
type LockType string

const (
	LockAccessExclusive      LockType = "ACCESS EXCLUSIVE"
	LockShareRowExclusive    LockType = "SHARE ROW EXCLUSIVE"
	LockShare                LockType = "SHARE"
	LockShareUpdateExclusive LockType = "SHARE UPDATE EXCLUSIVE"
	LockNone                 LockType = "NONE"
)

// BlocksReads reports whether the lock mode conflicts with SELECT.
// Only ACCESS EXCLUSIVE does.
func (l LockType) BlocksReads() bool {
	return l == LockAccessExclusive
}

// BlocksWrites reports whether the lock mode conflicts with
// INSERT/UPDATE/DELETE. SHARE UPDATE EXCLUSIVE conflicts only with
// other DDL and VACUUM, which is outside the reads/writes model.
func (l LockType) BlocksWrites() bool {
	switch l {
	case LockAccessExclusive, LockShareRowExclusive, LockShare:
		return true
	default:
		return false
	}
}

// Duration classifies how long a lock is held. The constant values are
// the exact report vocabulary; no other wording is permitted.
type Duration string

const (
	DurationInstant     Duration = "Instant"
	DurationUntilCommit Duration = "Until transaction commits"
	DurationIndexBuild  Duration = "During index build"
	DurationValidation  Duration = "During validation"
	DurationRewrite     Duration = "During table rewrite"
)

// TableRole distinguishes the table an operation alters from a table
// it merely references.
type TableRole string

const (
	RoleAltered    TableRole = "ALTERED"
	RoleReferenced TableRole = "REFERENCED"
)

// TableImpact is the effect of one operation on one table. The blocking
// booleans are always derived from Lock, never set independently.
type TableImpact struct {
	Table        string    `json:"table"`
	Role         TableRole `json:"role"`
	Lock         LockType  `json:"lockType"`
	BlocksReads  bool      `json:"blocksReads"`
	BlocksWrites bool      `json:"blocksWrites"`
	Duration     Duration  `json:"duration"`
}

// NewImpact builds a TableImpact with the blocking booleans derived
// from the lock mode.
func NewImpact(table string, role TableRole, lock LockType, duration Duration) TableImpact {
	return TableImpact{
		Table:        table,
		Role:         role,
		Lock:         lock,
		BlocksReads:  lock.BlocksReads(),
		BlocksWrites: lock.BlocksWrites(),
		Duration:     duration,
	}
}

// RiskLevel is the aggregate risk of a migration unit. Levels are
// totally ordered; the unit value is the maximum over its impacts.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseRiskLevel converts a level name (any case) back to a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	case "CRITICAL":
		return RiskCritical, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk level: %q", s)
	}
}

// TransactionFlag records that explicit transaction syntax was found,
// and whether a CONCURRENTLY operation occurs inside that boundary.
// The conflict is a fatal incompatibility, reported apart from the
// risk scale: the migration would fail at execution time.
type TransactionFlag struct {
	Explicit  bool   `json:"explicit"`
	Conflict  bool   `json:"conflict"`
	Statement string `json:"statement,omitempty"`
}

// Report is the assembled analysis of one migration unit. Impacts keep
// the operation order from source.
type Report struct {
	File    string           `json:"file"`
	Impacts []TableImpact    `json:"impacts"`
	Risk    RiskLevel        `json:"-"`
	Notes   []string         `json:"notes,omitempty"`
	TxFlag  *TransactionFlag `json:"transaction,omitempty"`
}
