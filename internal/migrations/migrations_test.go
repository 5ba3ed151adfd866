// Package migrations provides migration testing for the local sync store schema.
package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetMigrator tests that the migrator instance is created once
func TestGetMigrator(t *testing.T) {
	m, err := getMigrator()
	require.NoError(t, err, "Should create migrator instance")
	require.NotNil(t, m, "Should create migrator instance")

	m2, err2 := getMigrator()
	require.NoError(t, err2, "Should create migrator instance again")
	assert.Equal(t, m, m2, "Should return same migrator instance (singleton)")
}

// TestSyncColumns tests the shared bookkeeping column definitions
func TestSyncColumns(t *testing.T) {
	assert.Contains(t, syncColumns, "local_id bigserial PRIMARY KEY")
	assert.Contains(t, syncColumns, "remote_id text UNIQUE")
	assert.Contains(t, syncColumns, "sync_status text NOT NULL")
	assert.Contains(t, syncColumns, "deleted_at timestamp with time zone")
}
