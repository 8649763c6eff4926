// Package core defines the data model shared by the extraction,
// classification and output stages: migration operations, per-table
// lock impacts, risk levels and the assembled analysis report.
package core

// OperationKind identifies what a single migration operation does.
type OperationKind string

const (
	OpAddColumn          OperationKind = "ADD_COLUMN"
	OpDropColumn         OperationKind = "DROP_COLUMN"
	OpAddConstraint      OperationKind = "ADD_CONSTRAINT"
	OpDropConstraint     OperationKind = "DROP_CONSTRAINT"
	OpSetDefault         OperationKind = "SET_DEFAULT"
	OpDropDefault        OperationKind = "DROP_DEFAULT"
	OpDropNotNull        OperationKind = "DROP_NOT_NULL"
	OpSetNotNull         OperationKind = "SET_NOT_NULL"
	OpAlterColumnType    OperationKind = "ALTER_COLUMN_TYPE"
	OpRenameColumn       OperationKind = "RENAME_COLUMN"
	OpRenameTable        OperationKind = "RENAME_TABLE"
	OpCreateTable        OperationKind = "CREATE_TABLE"
	OpDropTable          OperationKind = "DROP_TABLE"
	OpCreateIndex        OperationKind = "CREATE_INDEX"
	OpDropIndex          OperationKind = "DROP_INDEX"
	OpTruncate           OperationKind = "TRUNCATE"
	OpVacuumFull         OperationKind = "VACUUM_FULL"
	OpCluster            OperationKind = "CLUSTER"
	OpReindex            OperationKind = "REINDEX"
	OpValidateConstraint OperationKind = "VALIDATE_CONSTRAINT"
	OpUnknown            OperationKind = "UNKNOWN"
)

// ConstraintKind is the constraint variant of an ADD_CONSTRAINT operation.
type ConstraintKind string

const (
	ConstraintCheck      ConstraintKind = "CHECK"
	ConstraintUnique     ConstraintKind = "UNIQUE"
	ConstraintExclude    ConstraintKind = "EXCLUDE"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
)

// Operation is one DDL-equivalent action found in a migration unit.
// The attribute fields past Raw form a bag that is only populated when
// relevant to the Kind; they are zero-valued and ignored otherwise.
type Operation struct {
	Kind  OperationKind `json:"kind"`
	Table string        `json:"table,omitempty"`
	// Seq is the position of the originating statement within the unit.
	// Statements that expand into several operations (multi-action
	// ALTER TABLE) share one Seq.
	Seq int `json:"-"`
	// Raw is the source text the operation was recognized from,
	// trimmed for use in notes and error messages.
	Raw string `json:"-"`

	IsNewTable   bool `json:"isNewTable,omitempty"`
	Concurrently bool `json:"concurrently,omitempty"`

	Column             string         `json:"column,omitempty"`
	HasDefault         bool           `json:"hasDefault,omitempty"`
	DefaultIsVolatile  bool           `json:"defaultIsVolatile,omitempty"`
	PGVersionAtLeast11 bool           `json:"-"`
	HasNotNull         bool           `json:"hasNotNull,omitempty"`
	GeneratedStored    bool           `json:"generatedStored,omitempty"`
	Constraint         ConstraintKind `json:"constraint,omitempty"`
	NotValid           bool           `json:"notValid,omitempty"`
	ReferencedTable    string         `json:"referencedTable,omitempty"`
	ReferencedIsNew    bool           `json:"-"`
	HasExistingCheck   bool           `json:"hasExistingCheck,omitempty"`
}

// TxTokenKind distinguishes transaction boundary tokens.
type TxTokenKind string

const (
	TxBegin  TxTokenKind = "BEGIN"
	TxCommit TxTokenKind = "COMMIT"
)

// TxToken records explicit transaction syntax found in the source,
// positioned by the same statement sequence as operations.
type TxToken struct {
	Kind TxTokenKind
	Seq  int
	Raw  string
}

// Unit is the extraction result for one migration file: the ordered
// operations plus any explicit transaction boundary tokens.
type Unit struct {
	Operations []Operation
	TxTokens   []TxToken
}
