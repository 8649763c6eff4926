package activerecord

import "regexp"

var (
	// t.references :user, foreign_key: true — a column call on the
	// create_table block variable.
	reTableColCall = regexp.MustCompile(`^([a-z])\.([a-z_]+)\s*\(?\s*(.*?)\)?\s*$`)
	reCheckNotNull = regexp.MustCompile(`(?i)^\s*([A-Za-z_][A-Za-z0-9_]*)\s+IS\s+NOT\s+NULL\s*$`)
	reNameOpt      = regexp.MustCompile(`name:\s*(?::([A-Za-z_][A-Za-z0-9_]*)|"([^"]+)"|'([^']+)')`)
)

type blockFrame struct {
	tx    bool
	table string
}

// state threads per-unit facts through extraction: the do/end block
// stack (only to bound explicit transaction wrappers), tables created
// in this unit, and NOT NULL check constraints usable by a later
// change_column_null.
type state struct {
	blocks            []blockFrame
	pendingBlockTable string
	newTables         map[string]bool
	notNullChecks     map[string]map[string]bool
	pendingChecks     map[string]map[string]string
}

func newState() *state {
	return &state{
		newTables:     map[string]bool{},
		notNullChecks: map[string]map[string]bool{},
		pendingChecks: map[string]map[string]string{},
	}
}

func (s *state) openBlock(tx bool) {
	s.blocks = append(s.blocks, blockFrame{tx: tx, table: s.pendingBlockTable})
	s.pendingBlockTable = ""
}

// closeBlock pops the innermost block and reports whether it was an
// explicit transaction wrapper.
func (s *state) closeBlock() bool {
	if len(s.blocks) == 0 {
		return false
	}
	frame := s.blocks[len(s.blocks)-1]
	s.blocks = s.blocks[:len(s.blocks)-1]
	return frame.tx
}

// blockTable returns the table of the innermost create_table block.
func (s *state) blockTable() string {
	for i := len(s.blocks) - 1; i >= 0; i-- {
		if s.blocks[i].table != "" {
			return s.blocks[i].table
		}
	}
	return ""
}

func (s *state) addNewTable(table string) {
	if table != "" {
		s.newTables[table] = true
	}
}

func (s *state) isNew(table string) bool {
	return s.newTables[table]
}

func (s *state) registerNotNullCheck(table, name, column string, valid bool) {
	if valid {
		if s.notNullChecks[table] == nil {
			s.notNullChecks[table] = map[string]bool{}
		}
		s.notNullChecks[table][column] = true
		return
	}
	if name == "" {
		return
	}
	if s.pendingChecks[table] == nil {
		s.pendingChecks[table] = map[string]string{}
	}
	s.pendingChecks[table][name] = column
}

func (s *state) validateConstraint(table, name string) {
	if column, ok := s.pendingChecks[table][name]; ok {
		s.registerNotNullCheck(table, "", column, true)
		delete(s.pendingChecks[table], name)
	}
}

func (s *state) hasNotNullCheck(table, column string) bool {
	return s.notNullChecks[table][column]
}
