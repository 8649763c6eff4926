package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lockcheck/internal/core"
)

func TestClassifyAddColumn(t *testing.T) {
	tests := []struct {
		name string
		op   core.Operation
		want core.Duration
	}{
		{
			name: "plain column is instant",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", PGVersionAtLeast11: true},
			want: core.DurationInstant,
		},
		{
			name: "constant default is instant on modern servers",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", HasDefault: true, PGVersionAtLeast11: true},
			want: core.DurationInstant,
		},
		{
			name: "constant default rewrites before v11",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", HasDefault: true},
			want: core.DurationRewrite,
		},
		{
			name: "volatile default always rewrites",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", HasDefault: true, DefaultIsVolatile: true, PGVersionAtLeast11: true},
			want: core.DurationRewrite,
		},
		{
			name: "not null without default rewrites",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", HasNotNull: true, PGVersionAtLeast11: true},
			want: core.DurationRewrite,
		},
		{
			name: "not null with default is instant",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", HasNotNull: true, HasDefault: true, PGVersionAtLeast11: true},
			want: core.DurationInstant,
		},
		{
			name: "stored generated column rewrites",
			op:   core.Operation{Kind: core.OpAddColumn, Table: "users", GeneratedStored: true, PGVersionAtLeast11: true},
			want: core.DurationRewrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impacts := Classify(tt.op)
			require.Len(t, impacts, 1)
			imp := impacts[0]
			assert.Equal(t, core.LockAccessExclusive, imp.Lock)
			assert.Equal(t, tt.want, imp.Duration)
			assert.True(t, imp.BlocksReads)
			assert.True(t, imp.BlocksWrites)
		})
	}
}

func TestClassifyNewTableProducesNoImpact(t *testing.T) {
	ops := []core.Operation{
		{Kind: core.OpCreateTable, Table: "users", IsNewTable: true},
		{Kind: core.OpAddColumn, Table: "users", IsNewTable: true, HasNotNull: true},
		{Kind: core.OpCreateIndex, Table: "users", IsNewTable: true},
		{Kind: core.OpAlterColumnType, Table: "users", IsNewTable: true},
	}
	for _, op := range ops {
		assert.Empty(t, Classify(op), string(op.Kind))
	}
}

func TestClassifyCreateTableReference(t *testing.T) {
	t.Run("pre-existing referenced table is locked", func(t *testing.T) {
		op := core.Operation{Kind: core.OpCreateTable, Table: "orders", IsNewTable: true, ReferencedTable: "users"}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		imp := impacts[0]
		assert.Equal(t, "users", imp.Table)
		assert.Equal(t, core.RoleReferenced, imp.Role)
		assert.Equal(t, core.LockShareRowExclusive, imp.Lock)
		assert.Equal(t, core.DurationUntilCommit, imp.Duration)
		assert.False(t, imp.BlocksReads)
		assert.True(t, imp.BlocksWrites)
	})

	t.Run("referenced table created in same unit is not", func(t *testing.T) {
		op := core.Operation{Kind: core.OpCreateTable, Table: "orders", IsNewTable: true, ReferencedTable: "users", ReferencedIsNew: true}
		assert.Empty(t, Classify(op))
	})
}

func TestClassifyForeignKey(t *testing.T) {
	t.Run("locks both tables until commit", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintForeignKey, Table: "orders", ReferencedTable: "users"}
		impacts := Classify(op)
		require.Len(t, impacts, 2)
		for _, imp := range impacts {
			assert.Equal(t, core.LockShareRowExclusive, imp.Lock)
			assert.Equal(t, core.DurationUntilCommit, imp.Duration)
			assert.True(t, imp.BlocksWrites)
			assert.False(t, imp.BlocksReads)
		}
		assert.Equal(t, "orders", impacts[0].Table)
		assert.Equal(t, core.RoleAltered, impacts[0].Role)
		assert.Equal(t, "users", impacts[1].Table)
		assert.Equal(t, core.RoleReferenced, impacts[1].Role)
	})

	t.Run("not valid changes nothing about the locks", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintForeignKey, Table: "orders", ReferencedTable: "users", NotValid: true}
		impacts := Classify(op)
		require.Len(t, impacts, 2)
		assert.Equal(t, core.DurationUntilCommit, impacts[0].Duration)
		assert.Equal(t, core.DurationUntilCommit, impacts[1].Duration)
	})

	t.Run("new altered table still locks the referenced one", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintForeignKey, Table: "orders", IsNewTable: true, ReferencedTable: "users"}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, "users", impacts[0].Table)
	})
}

func TestClassifyConstraints(t *testing.T) {
	t.Run("check validates under full lock", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintCheck, Table: "users"}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, core.LockAccessExclusive, impacts[0].Lock)
		assert.Equal(t, core.DurationValidation, impacts[0].Duration)
	})

	t.Run("check not valid is instant", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintCheck, Table: "users", NotValid: true}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, core.DurationInstant, impacts[0].Duration)
	})

	t.Run("validate constraint allows reads and writes", func(t *testing.T) {
		op := core.Operation{Kind: core.OpValidateConstraint, Table: "users"}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, core.LockShareUpdateExclusive, impacts[0].Lock)
		assert.Equal(t, core.DurationValidation, impacts[0].Duration)
		assert.False(t, impacts[0].BlocksReads)
		assert.False(t, impacts[0].BlocksWrites)
	})
}

func TestClassifyIndexOperations(t *testing.T) {
	tests := []struct {
		name     string
		op       core.Operation
		lock     core.LockType
		duration core.Duration
	}{
		{
			name:     "create index blocks writes",
			op:       core.Operation{Kind: core.OpCreateIndex, Table: "users"},
			lock:     core.LockShare,
			duration: core.DurationIndexBuild,
		},
		{
			name:     "create index concurrently blocks nothing",
			op:       core.Operation{Kind: core.OpCreateIndex, Table: "users", Concurrently: true},
			lock:     core.LockShareUpdateExclusive,
			duration: core.DurationIndexBuild,
		},
		{
			name:     "drop index is instant exclusive",
			op:       core.Operation{Kind: core.OpDropIndex, Table: "users_email_idx"},
			lock:     core.LockAccessExclusive,
			duration: core.DurationInstant,
		},
		{
			name:     "drop index concurrently",
			op:       core.Operation{Kind: core.OpDropIndex, Table: "users_email_idx", Concurrently: true},
			lock:     core.LockShareUpdateExclusive,
			duration: core.DurationIndexBuild,
		},
		{
			name:     "reindex rewrites",
			op:       core.Operation{Kind: core.OpReindex, Table: "users"},
			lock:     core.LockAccessExclusive,
			duration: core.DurationRewrite,
		},
		{
			name:     "reindex concurrently",
			op:       core.Operation{Kind: core.OpReindex, Table: "users", Concurrently: true},
			lock:     core.LockShareUpdateExclusive,
			duration: core.DurationIndexBuild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impacts := Classify(tt.op)
			require.Len(t, impacts, 1)
			assert.Equal(t, tt.lock, impacts[0].Lock)
			assert.Equal(t, tt.duration, impacts[0].Duration)
		})
	}
}

func TestClassifySetNotNull(t *testing.T) {
	t.Run("without prior check scans the table", func(t *testing.T) {
		op := core.Operation{Kind: core.OpSetNotNull, Table: "users", Column: "email"}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, core.DurationRewrite, impacts[0].Duration)
	})

	t.Run("with validated check is instant", func(t *testing.T) {
		op := core.Operation{Kind: core.OpSetNotNull, Table: "users", Column: "email", HasExistingCheck: true}
		impacts := Classify(op)
		require.Len(t, impacts, 1)
		assert.Equal(t, core.DurationInstant, impacts[0].Duration)
	})
}

func TestClassifyInstantAndRewriteKinds(t *testing.T) {
	for kind := range instantExclusive {
		impacts := Classify(core.Operation{Kind: kind, Table: "users"})
		require.Len(t, impacts, 1, string(kind))
		assert.Equal(t, core.LockAccessExclusive, impacts[0].Lock, string(kind))
		assert.Equal(t, core.DurationInstant, impacts[0].Duration, string(kind))
	}
	for kind := range rewriteExclusive {
		impacts := Classify(core.Operation{Kind: kind, Table: "users"})
		require.Len(t, impacts, 1, string(kind))
		assert.Equal(t, core.LockAccessExclusive, impacts[0].Lock, string(kind))
		assert.Equal(t, core.DurationRewrite, impacts[0].Duration, string(kind))
	}
}

func TestClassifyUnknown(t *testing.T) {
	assert.Empty(t, Classify(core.Operation{Kind: core.OpUnknown, Raw: "UPDATE users SET x = 1"}))
}

func TestAggregateRisk(t *testing.T) {
	impact := func(lock core.LockType, d core.Duration) core.TableImpact {
		return core.NewImpact("users", core.RoleAltered, lock, d)
	}

	tests := []struct {
		name    string
		impacts []core.TableImpact
		want    core.RiskLevel
	}{
		{"no impacts", nil, core.RiskLow},
		{"concurrent index build", []core.TableImpact{impact(core.LockShareUpdateExclusive, core.DurationIndexBuild)}, core.RiskLow},
		{"instant exclusive", []core.TableImpact{impact(core.LockAccessExclusive, core.DurationInstant)}, core.RiskMedium},
		{"share row exclusive", []core.TableImpact{impact(core.LockShareRowExclusive, core.DurationUntilCommit)}, core.RiskHigh},
		{"plain index build", []core.TableImpact{impact(core.LockShare, core.DurationIndexBuild)}, core.RiskHigh},
		{"exclusive validation scan", []core.TableImpact{impact(core.LockAccessExclusive, core.DurationValidation)}, core.RiskHigh},
		{"rewrite", []core.TableImpact{impact(core.LockAccessExclusive, core.DurationRewrite)}, core.RiskCritical},
		{
			"maximum wins",
			[]core.TableImpact{
				impact(core.LockShareUpdateExclusive, core.DurationIndexBuild),
				impact(core.LockAccessExclusive, core.DurationRewrite),
				impact(core.LockAccessExclusive, core.DurationInstant),
			},
			core.RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateRisk(tt.impacts))
		})
	}
}

func TestRun(t *testing.T) {
	t.Run("impacts keep statement order", func(t *testing.T) {
		unit := &core.Unit{Operations: []core.Operation{
			{Kind: core.OpAddColumn, Table: "a", Seq: 0, PGVersionAtLeast11: true},
			{Kind: core.OpDropColumn, Table: "b", Seq: 1},
			{Kind: core.OpCreateIndex, Table: "c", Seq: 2, Concurrently: true},
		}}
		res := Run(unit)
		require.Len(t, res.Impacts, 3)
		assert.Equal(t, "a", res.Impacts[0].Table)
		assert.Equal(t, "b", res.Impacts[1].Table)
		assert.Equal(t, "c", res.Impacts[2].Table)
		assert.Equal(t, core.RiskMedium, res.Risk)
	})

	t.Run("unknown operations become notes", func(t *testing.T) {
		unit := &core.Unit{Operations: []core.Operation{
			{Kind: core.OpUnknown, Seq: 0, Raw: "UPDATE users SET active = true"},
		}}
		res := Run(unit)
		assert.Empty(t, res.Impacts)
		require.Len(t, res.Notes, 1)
		assert.Contains(t, res.Notes[0], `"UPDATE users SET active = true"`)
		assert.Equal(t, core.RiskLow, res.Risk)
	})

	t.Run("duplicate notes collapse", func(t *testing.T) {
		unit := &core.Unit{Operations: []core.Operation{
			{Kind: core.OpCreateIndex, Table: "users", Seq: 0, Concurrently: true},
			{Kind: core.OpDropIndex, Table: "users", Seq: 1, Concurrently: true},
		}}
		res := Run(unit)
		require.Len(t, res.Notes, 1)
		assert.Contains(t, res.Notes[0], "DDL command or VACUUM")
	})
}

func TestAnalyzeTransaction(t *testing.T) {
	concurrent := core.Operation{Kind: core.OpCreateIndex, Table: "users", Concurrently: true,
		Raw: "CREATE INDEX CONCURRENTLY users_email_idx ON users (email)"}

	t.Run("no explicit transaction reports nothing", func(t *testing.T) {
		op := concurrent
		op.Seq = 0
		unit := &core.Unit{Operations: []core.Operation{op}}
		assert.Nil(t, AnalyzeTransaction(unit))
	})

	t.Run("concurrently inside begin commit", func(t *testing.T) {
		op := concurrent
		op.Seq = 1
		unit := &core.Unit{
			Operations: []core.Operation{op},
			TxTokens: []core.TxToken{
				{Kind: core.TxBegin, Seq: 0},
				{Kind: core.TxCommit, Seq: 2},
			},
		}
		flag := AnalyzeTransaction(unit)
		require.NotNil(t, flag)
		assert.True(t, flag.Explicit)
		assert.True(t, flag.Conflict)
		assert.Equal(t, op.Raw, flag.Statement)
	})

	t.Run("concurrently after commit is fine", func(t *testing.T) {
		op := concurrent
		op.Seq = 3
		unit := &core.Unit{
			Operations: []core.Operation{op},
			TxTokens: []core.TxToken{
				{Kind: core.TxBegin, Seq: 0},
				{Kind: core.TxCommit, Seq: 2},
			},
		}
		flag := AnalyzeTransaction(unit)
		require.NotNil(t, flag)
		assert.True(t, flag.Explicit)
		assert.False(t, flag.Conflict)
	})

	t.Run("unmatched begin extends to the end", func(t *testing.T) {
		op := concurrent
		op.Seq = 5
		unit := &core.Unit{
			Operations: []core.Operation{op},
			TxTokens:   []core.TxToken{{Kind: core.TxBegin, Seq: 0}},
		}
		flag := AnalyzeTransaction(unit)
		require.NotNil(t, flag)
		assert.True(t, flag.Conflict)
	})

	t.Run("non-concurrent operations never conflict", func(t *testing.T) {
		unit := &core.Unit{
			Operations: []core.Operation{{Kind: core.OpAddColumn, Table: "users", Seq: 1}},
			TxTokens: []core.TxToken{
				{Kind: core.TxBegin, Seq: 0},
				{Kind: core.TxCommit, Seq: 2},
			},
		}
		flag := AnalyzeTransaction(unit)
		require.NotNil(t, flag)
		assert.False(t, flag.Conflict)
	})
}

func TestNotes(t *testing.T) {
	t.Run("foreign key not valid", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddConstraint, Constraint: core.ConstraintForeignKey,
			Table: "orders", ReferencedTable: "users", NotValid: true}
		notes := notesFor(op, Classify(op))
		require.NotEmpty(t, notes)
		assert.Contains(t, notes[len(notes)-1], "NOT VALID")
	})

	t.Run("constant default on older servers", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddColumn, Table: "users", HasDefault: true, PGVersionAtLeast11: true}
		notes := notesFor(op, Classify(op))
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "PostgreSQL 10 or older")
	})

	t.Run("non-concurrent index build", func(t *testing.T) {
		op := core.Operation{Kind: core.OpCreateIndex, Table: "users"}
		notes := notesFor(op, Classify(op))
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0], "index build")
	})

	t.Run("no notes for a plain add column", func(t *testing.T) {
		op := core.Operation{Kind: core.OpAddColumn, Table: "users", PGVersionAtLeast11: true}
		assert.Empty(t, notesFor(op, Classify(op)))
	})
}
