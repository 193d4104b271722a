// Package storetest prepara bancos SQLite migrados para testes.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/farmdesk/internal/db"
	"github.com/gestaozabele/farmdesk/internal/store"
)

// NewSQLite cria um arquivo temporário com o schema aplicado e devolve o adapter aberto.
func NewSQLite(t testing.TB) *store.SQLiteAdapter {
	t.Helper()

	path := filepath.Join(t.TempDir(), "farmdesk.db")
	_, err := db.MigrateSQLite(path)
	require.NoError(t, err)

	adapter, err := store.OpenSQLite(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })
	return adapter
}
