package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/config"
	"budget/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "d"})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", DataDirectory: "d"}, got)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file ok", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"memory without dir", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestCreateBackend(t *testing.T) {
	dir := t.TempDir()
	configs := []Config{
		{Type: FileBackend, DataDirectory: filepath.Join(dir, "files")},
		{Type: MemoryBackend, DataDirectory: dir},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "budget.db")},
	}

	f := NewFactory(nil)
	ctx := context.Background()
	for _, cfg := range configs {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, res.Cleanup()) }()

			require.NoError(t, res.Ready(ctx))

			doc, err := res.Store.Load(ctx, "alice")
			require.NoError(t, err)
			require.NoError(t, doc.SetIncome("2024-01", core.MustParseMoney("100")))
			require.NoError(t, res.Store.Save(ctx, "alice", doc))

			again, err := res.Store.Load(ctx, "alice")
			require.NoError(t, err)
			rec, ok := again.Month("2024-01")
			require.True(t, ok)
			assert.True(t, rec.Income.Equal(core.MustParseMoney("100")))
		})
	}
}

func TestBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"file", "memory", "sqlite"}, GetBackendTypeStrings())
	assert.ElementsMatch(t, config.ValidBackends, GetBackendTypeStrings())
}
