package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/invoicing/backend/migrations"
)

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"20250102000000_second.up.sql":   {Data: []byte("SELECT 2;")},
		"20250102000000_second.down.sql": {Data: []byte("SELECT 2;")},
		"20250101000000_first.up.sql":    {Data: []byte("SELECT 1;")},
		"20250101000000_first.down.sql":  {Data: []byte("SELECT 1;")},
		"README.md":                      {Data: []byte("docs")},
		"nested/20250103000000_x.up.sql": {Data: []byte("SELECT 3;")},
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250101000000_first", "20250102000000_second"}, names)

	names, err = ListMigrations(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20250114100000_create_invoices",
		"20250114100100_create_invoice_config",
	}, names)

	for _, name := range names {
		_, err := migrations.FS.Open(name + ".down.sql")
		assert.NoError(t, err, "missing down migration for %s", name)
	}
}

func TestZapMigrateLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &zapMigrateLogger{log: zap.New(core).Sugar(), verbose: true}

	l.Printf("Finished 20250114100000/u create_invoices (read %v, ran %v)\n", "1ms", "2ms")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Finished 20250114100000/u create_invoices (read 1ms, ran 2ms)", logs.All()[0].Message)
	assert.True(t, l.Verbose())
}
