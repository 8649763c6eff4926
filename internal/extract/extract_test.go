package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"migrations/20260829_add_index.sql", true},
		{"db/migrate/20260829_add_index.rb", true},
		{"20260829_ADD_INDEX.SQL", true},
		{"migrations/up.py", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ex, err := ForFile(tt.path, Options{})
			if tt.ok {
				require.NoError(t, err)
				assert.NotNil(t, ex)
				return
			}
			require.Error(t, err)
			var ue *UnsupportedDialectError
			require.ErrorAs(t, err, &ue)
			assert.Contains(t, ue.Error(), tt.path)
		})
	}
}

func TestForDialect(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql", "sql", "activerecord", "rails", "Postgres"} {
		ex, err := ForDialect(name, Options{})
		require.NoError(t, err, name)
		assert.NotNil(t, ex, name)
	}

	_, err := ForDialect("mysql", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}
