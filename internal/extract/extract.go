// Package extract provides the Extractor interface for turning
// migration source text (raw SQL or an ORM migration file) into the
// structured operation sequence consumed by the classifier, and picks
// the dialect variant for a given file.
//
// Extraction is purely syntactic: it records what literally appears in
// the source and never infers locking semantics or attributes that are
// not written out (a NOT NULL column is never assumed to carry a
// DEFAULT).
package extract

import (
	"path/filepath"
	"strings"

	"lockcheck/internal/core"
	"lockcheck/internal/extract/activerecord"
	"lockcheck/internal/extract/postgres"
)

// Extractor yields the operations and transaction tokens of one
// migration unit. Implementations are side-effect-free and
// deterministic.
type Extractor interface {
	Extract(src string) (*core.Unit, error)
}

// Options configure extraction. PGVersion is the server major version
// migrations are assumed to run against; it only affects the
// ADD COLUMN fast path for constant defaults.
type Options struct {
	PGVersion int
}

// DefaultPGVersion is assumed when no version is configured.
const DefaultPGVersion = 13

func (o Options) pgVersion() int {
	if o.PGVersion <= 0 {
		return DefaultPGVersion
	}
	return o.PGVersion
}

// ForFile picks the extractor dialect from the file extension:
// .sql is raw PostgreSQL, .rb an ActiveRecord migration.
func ForFile(path string, opts Options) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sql":
		return postgres.NewExtractor(opts.pgVersion()), nil
	case ".rb":
		return activerecord.NewExtractor(opts.pgVersion()), nil
	default:
		return nil, &UnsupportedDialectError{Path: path}
	}
}

// ForDialect picks the extractor by explicit dialect name, overriding
// extension-based detection.
func ForDialect(name string, opts Options) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "sql":
		return postgres.NewExtractor(opts.pgVersion()), nil
	case "activerecord", "rails":
		return activerecord.NewExtractor(opts.pgVersion()), nil
	default:
		return nil, &UnsupportedDialectError{Dialect: name}
	}
}

// UnsupportedDialectError reports a file or dialect name no extractor
// variant covers.
type UnsupportedDialectError struct {
	Path    string
	Dialect string
}

func (e *UnsupportedDialectError) Error() string {
	if e.Dialect != "" {
		return "unsupported migration dialect: " + e.Dialect
	}
	return "unsupported migration file format: " + e.Path
}
